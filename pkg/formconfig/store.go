package formconfig

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/cache"
	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	// ErrFormTypeRequired is returned when an operation receives an empty form type.
	ErrFormTypeRequired = errors.New("formconfig: form type is required")
	// ErrCoreField is returned when an edit would disable a core field.
	ErrCoreField = errors.New("formconfig: core field cannot be disabled")
	// ErrFieldDisabled is returned when toggling required on a disabled field.
	ErrFieldDisabled = errors.New("formconfig: field is disabled")
	// ErrFieldNotFound is returned when a field id is not in the cached configuration.
	ErrFieldNotFound = errors.New("formconfig: field not found")
	// ErrNotLoaded is returned when an edit needs a configuration that is not cached.
	ErrNotLoaded = errors.New("formconfig: form configuration not loaded")
)

// Service is the remote configuration service.
type Service interface {
	FormTypes(ctx context.Context) ([]model.FormType, error)
	FormFields(ctx context.Context, formType string) ([]model.FieldDescriptor, error)
	FormMetadata(ctx context.Context, formType string) (model.FormMetadata, error)
	UpdateFormField(ctx context.Context, formType string, fieldID int, patch model.FieldPatch) error
	UpdateFormFields(ctx context.Context, formType string, patches []model.FieldPatch) error
	UpdateFieldOrder(ctx context.Context, formType string, orders []model.FieldOrder) error
	ResetFormToDefaults(ctx context.Context, formType string) error
}

// Option configures a Store.
type Option func(*Store)

// WithCache replaces the default in-memory cache.
func WithCache(c cache.Cache[model.FormConfiguration]) Option {
	return func(s *Store) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithMetrics records cache lookups and remote calls.
func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// Store caches form configurations per form type.
type Store struct {
	service Service
	cache   cache.Cache[model.FormConfiguration]
	logger  zerolog.Logger
	metrics *metrics.Collectors

	// mu serialises read-modify-write of cached configurations.
	mu sync.Mutex

	stateMu   sync.RWMutex
	formTypes []model.FormType
	metadata  map[string]model.FormMetadata
	dirty     bool
	lastErr   error

	loading atomic.Int32
}

// New constructs a store backed by service.
func New(service Service, opts ...Option) *Store {
	s := &Store{
		service:  service,
		cache:    cache.NewMemory[model.FormConfiguration](),
		logger:   zerolog.Nop(),
		metadata: make(map[string]model.FormMetadata),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoadFields returns the configuration of formType, fetching it when it is
// not cached, when the cached copy has no fields, or when forceReload is set.
func (s *Store) LoadFields(ctx context.Context, formType string, forceReload bool) (model.FormConfiguration, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return model.FormConfiguration{}, ErrFormTypeRequired
	}
	if !forceReload {
		if cfg, ok := s.cached(ctx, formType); ok && len(cfg.Fields) > 0 {
			s.metrics.CacheLookup(formType, true)
			return cfg.Clone(), nil
		}
		s.metrics.CacheLookup(formType, false)
	}
	s.clearErr()

	var fields []model.FieldDescriptor
	err := s.remote(ctx, "fields", func(ctx context.Context) error {
		var err error
		fields, err = s.service.FormFields(ctx, formType)
		return err
	})
	if err != nil {
		return model.FormConfiguration{}, s.fail(fmt.Errorf("formconfig: load %s fields: %w", formType, err))
	}

	cfg := model.FormConfiguration{FormType: formType, Fields: make([]model.FieldDescriptor, 0, len(fields))}
	for _, f := range fields {
		cfg.Fields = append(cfg.Fields, f.Normalize())
	}
	s.store(ctx, cfg)
	s.logger.Debug().Str("form_type", formType).Int("fields", len(cfg.Fields)).Msg("form configuration loaded")
	return cfg.Clone(), nil
}

// Reload forces a fetch of formType.
func (s *Store) Reload(ctx context.Context, formType string) (model.FormConfiguration, error) {
	return s.LoadFields(ctx, formType, true)
}

// LoadFormTypes fetches the catalogue of form types.
func (s *Store) LoadFormTypes(ctx context.Context) ([]model.FormType, error) {
	s.clearErr()
	var types []model.FormType
	err := s.remote(ctx, "types", func(ctx context.Context) error {
		var err error
		types, err = s.service.FormTypes(ctx)
		return err
	})
	if err != nil {
		return nil, s.fail(fmt.Errorf("formconfig: load form types: %w", err))
	}
	s.stateMu.Lock()
	s.formTypes = append([]model.FormType(nil), types...)
	s.stateMu.Unlock()
	return append([]model.FormType(nil), types...), nil
}

// FormTypes returns the last loaded catalogue.
func (s *Store) FormTypes() []model.FormType {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]model.FormType(nil), s.formTypes...)
}

// LoadMetadata fetches the full metadata of formType.
func (s *Store) LoadMetadata(ctx context.Context, formType string) (model.FormMetadata, error) {
	formType = strings.TrimSpace(formType)
	if formType == "" {
		return model.FormMetadata{}, ErrFormTypeRequired
	}
	s.clearErr()
	var meta model.FormMetadata
	err := s.remote(ctx, "metadata", func(ctx context.Context) error {
		var err error
		meta, err = s.service.FormMetadata(ctx, formType)
		return err
	})
	if err != nil {
		return model.FormMetadata{}, s.fail(fmt.Errorf("formconfig: load %s metadata: %w", formType, err))
	}
	s.stateMu.Lock()
	s.metadata[formType] = meta
	s.stateMu.Unlock()
	return meta, nil
}

// Metadata returns the last loaded metadata of formType.
func (s *Store) Metadata(formType string) (model.FormMetadata, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	meta, ok := s.metadata[formType]
	return meta, ok
}

// Fields returns the cached descriptors of formType, or nil when not loaded.
func (s *Store) Fields(ctx context.Context, formType string) []model.FieldDescriptor {
	cfg, ok := s.cached(ctx, formType)
	if !ok {
		return nil
	}
	return cfg.Clone().Fields
}

// Field returns a cached descriptor by name.
func (s *Store) Field(ctx context.Context, formType, name string) (model.FieldDescriptor, bool) {
	cfg, ok := s.cached(ctx, formType)
	if !ok {
		return model.FieldDescriptor{}, false
	}
	f, ok := cfg.Field(name)
	return f.Clone(), ok
}

// EnabledFields projects the cached enabled descriptors.
func (s *Store) EnabledFields(ctx context.Context, formType string) []model.FieldDescriptor {
	return Enabled(s.Fields(ctx, formType))
}

// RequiredFields projects the cached enabled and required descriptors.
func (s *Store) RequiredFields(ctx context.Context, formType string) []model.FieldDescriptor {
	return Required(s.Fields(ctx, formType))
}

// FieldsByCategory groups the cached enabled descriptors.
func (s *Store) FieldsByCategory(ctx context.Context, formType string) []CategoryGroup {
	return ByCategory(s.Fields(ctx, formType))
}

// CoreFields projects the cached core descriptors.
func (s *Store) CoreFields(ctx context.Context, formType string) []model.FieldDescriptor {
	return Core(s.Fields(ctx, formType))
}

// ConfigurableFields projects the cached non-core descriptors.
func (s *Store) ConfigurableFields(ctx context.Context, formType string) []model.FieldDescriptor {
	return Configurable(s.Fields(ctx, formType))
}

// ClearCache drops the cached configuration of formType, or of every form
// type when formType is empty.
func (s *Store) ClearCache(ctx context.Context, formType string) error {
	formType = strings.TrimSpace(formType)
	s.mu.Lock()
	defer s.mu.Unlock()
	if formType == "" {
		s.stateMu.Lock()
		s.metadata = make(map[string]model.FormMetadata)
		s.stateMu.Unlock()
		return s.cache.Clear(ctx)
	}
	s.stateMu.Lock()
	delete(s.metadata, formType)
	s.stateMu.Unlock()
	return s.cache.Delete(ctx, formType)
}

// Dirty reports whether a mutation succeeded since the last MarkClean or reset.
func (s *Store) Dirty() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.dirty
}

// MarkClean clears the dirty flag.
func (s *Store) MarkClean() { s.setDirty(false) }

// Err returns the last recorded failure.
func (s *Store) Err() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastErr
}

// ClearError drops the recorded failure.
func (s *Store) ClearError() { s.clearErr() }

// Loading reports whether a remote call is in flight.
func (s *Store) Loading() bool { return s.loading.Load() > 0 }

func (s *Store) cached(ctx context.Context, formType string) (model.FormConfiguration, bool) {
	cfg, ok, err := s.cache.Get(ctx, formType)
	if err != nil {
		s.logger.Warn().Err(err).Str("form_type", formType).Msg("form configuration cache read failed")
		return model.FormConfiguration{}, false
	}
	return cfg, ok
}

func (s *Store) store(ctx context.Context, cfg model.FormConfiguration) {
	if err := s.cache.Set(ctx, cfg.FormType, cfg); err != nil {
		s.logger.Warn().Err(err).Str("form_type", cfg.FormType).Msg("form configuration cache write failed")
	}
}

func (s *Store) remote(ctx context.Context, operation string, call func(context.Context) error) error {
	if s.service == nil {
		return errors.New("formconfig: service is not configured")
	}
	s.loading.Add(1)
	defer s.loading.Add(-1)
	start := time.Now()
	err := call(ctx)
	s.metrics.ObserveRemote("forms", operation, start, err)
	return err
}

func (s *Store) fail(err error) error {
	s.stateMu.Lock()
	s.lastErr = err
	s.stateMu.Unlock()
	s.logger.Error().Err(err).Msg("form configuration request failed")
	return err
}

func (s *Store) clearErr() {
	s.stateMu.Lock()
	s.lastErr = nil
	s.stateMu.Unlock()
}

func (s *Store) setDirty(dirty bool) {
	s.stateMu.Lock()
	s.dirty = dirty
	s.stateMu.Unlock()
}
