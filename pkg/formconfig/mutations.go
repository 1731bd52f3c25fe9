package formconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/model"
)

// UpdateField sends patch for one field and merges it into the cached copy.
func (s *Store) UpdateField(ctx context.Context, formType string, fieldID int, patch model.FieldPatch) error {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return ErrFormTypeRequired
	}
	patch.FieldID = fieldID
	if err := s.guardPatches(ctx, formType, patch); err != nil {
		return err
	}
	s.clearErr()
	err := s.remote(ctx, "update_field", func(ctx context.Context) error {
		return s.service.UpdateFormField(ctx, formType, fieldID, patch)
	})
	if err != nil {
		return s.fail(fmt.Errorf("formconfig: update %s field %d: %w", formType, fieldID, err))
	}
	s.patchCached(ctx, formType, func(cfg *model.FormConfiguration) {
		applyPatches(cfg, patch)
	})
	s.setDirty(true)
	return nil
}

// UpdateFields sends several patches in one call and merges each into the
// cached copy.
func (s *Store) UpdateFields(ctx context.Context, formType string, patches []model.FieldPatch) error {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return ErrFormTypeRequired
	}
	if err := s.guardPatches(ctx, formType, patches...); err != nil {
		return err
	}
	s.clearErr()
	err := s.remote(ctx, "update_fields", func(ctx context.Context) error {
		return s.service.UpdateFormFields(ctx, formType, patches)
	})
	if err != nil {
		return s.fail(fmt.Errorf("formconfig: update %s fields: %w", formType, err))
	}
	s.patchCached(ctx, formType, func(cfg *model.FormConfiguration) {
		applyPatches(cfg, patches...)
	})
	s.setDirty(true)
	return nil
}

// UpdateFieldOrder sends new sort orders and re-sorts the cached copy.
func (s *Store) UpdateFieldOrder(ctx context.Context, formType string, orders []model.FieldOrder) error {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return ErrFormTypeRequired
	}
	s.clearErr()
	err := s.remote(ctx, "update_order", func(ctx context.Context) error {
		return s.service.UpdateFieldOrder(ctx, formType, orders)
	})
	if err != nil {
		return s.fail(fmt.Errorf("formconfig: update %s field order: %w", formType, err))
	}
	s.patchCached(ctx, formType, func(cfg *model.FormConfiguration) {
		byID := make(map[int]int, len(orders))
		for _, o := range orders {
			byID[o.FieldID] = o.SortOrder
		}
		for i := range cfg.Fields {
			if order, ok := byID[cfg.Fields[i].ID]; ok {
				cfg.Fields[i].SortOrder = order
			}
		}
		model.SortFields(cfg.Fields)
	})
	s.setDirty(true)
	return nil
}

// ResetToDefaults resets formType remotely, reloads it and clears the dirty
// flag.
func (s *Store) ResetToDefaults(ctx context.Context, formType string) (model.FormConfiguration, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return model.FormConfiguration{}, ErrFormTypeRequired
	}
	s.clearErr()
	err := s.remote(ctx, "reset", func(ctx context.Context) error {
		return s.service.ResetFormToDefaults(ctx, formType)
	})
	if err != nil {
		return model.FormConfiguration{}, s.fail(fmt.Errorf("formconfig: reset %s: %w", formType, err))
	}
	cfg, err := s.LoadFields(ctx, formType, true)
	if err != nil {
		return model.FormConfiguration{}, err
	}
	s.setDirty(false)
	s.logger.Info().Str("form_type", formType).Msg("form configuration reset to defaults")
	return cfg, nil
}

// ToggleFieldEnabled flips the enabled flag of a cached field. Core fields
// are refused.
func (s *Store) ToggleFieldEnabled(ctx context.Context, formType string, fieldID int) error {
	field, err := s.cachedField(ctx, formType, fieldID)
	if err != nil {
		return err
	}
	if field.IsCore {
		return ErrCoreField
	}
	return s.UpdateField(ctx, formType, fieldID, model.FieldPatch{IsEnabled: model.BoolPtr(!field.IsEnabled)})
}

// ToggleFieldRequired flips the required flag of a cached field. Disabled
// fields are refused.
func (s *Store) ToggleFieldRequired(ctx context.Context, formType string, fieldID int) error {
	field, err := s.cachedField(ctx, formType, fieldID)
	if err != nil {
		return err
	}
	if !field.IsEnabled {
		return ErrFieldDisabled
	}
	return s.UpdateField(ctx, formType, fieldID, model.FieldPatch{IsRequired: model.BoolPtr(!field.IsRequired)})
}

func (s *Store) cachedField(ctx context.Context, formType string, fieldID int) (model.FieldDescriptor, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return model.FieldDescriptor{}, ErrFormTypeRequired
	}
	cfg, ok := s.cached(ctx, formType)
	if !ok {
		return model.FieldDescriptor{}, ErrNotLoaded
	}
	field, ok := cfg.FieldByID(fieldID)
	if !ok {
		return model.FieldDescriptor{}, fmt.Errorf("%w: %d", ErrFieldNotFound, fieldID)
	}
	return field, nil
}

// guardPatches rejects patches disabling core fields known to the cache.
func (s *Store) guardPatches(ctx context.Context, formType string, patches ...model.FieldPatch) error {
	cfg, ok := s.cached(ctx, formType)
	if !ok {
		return nil
	}
	for _, p := range patches {
		if p.IsEnabled == nil || *p.IsEnabled {
			continue
		}
		if f, ok := cfg.FieldByID(p.FieldID); ok && f.IsCore {
			return fmt.Errorf("%w: %s", ErrCoreField, f.Name)
		}
	}
	return nil
}

func (s *Store) patchCached(ctx context.Context, formType string, mutate func(*model.FormConfiguration)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.cached(ctx, formType)
	if !ok {
		return
	}
	cfg = cfg.Clone()
	mutate(&cfg)
	s.store(ctx, cfg)
}

func applyPatches(cfg *model.FormConfiguration, patches ...model.FieldPatch) {
	for _, p := range patches {
		for i := range cfg.Fields {
			if cfg.Fields[i].ID == p.FieldID {
				cfg.Fields[i] = p.Apply(cfg.Fields[i]).Normalize()
			}
		}
	}
}
