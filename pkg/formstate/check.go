package formstate

import (
	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/fieldtypes"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// ValidateRecord runs a one-shot validation of input against the enabled
// fields of cfg without a record service. Values are reshaped to their field
// types and missing fields get their initial values before the rules run. The
// schema check from WithSchemaCheck only runs when the field rules pass.
func ValidateRecord(cfg model.FormConfiguration, input model.Record, ent *entity.Context, opts ...Option) (model.Record, validation.FieldErrors) {
	enabled := make([]model.FieldDescriptor, 0, len(cfg.Fields))
	for _, field := range cfg.Fields {
		if field.IsEnabled {
			enabled = append(enabled, field)
		}
	}

	initial := make(model.Record, len(input))
	for name, v := range input {
		initial[name] = v
	}
	for _, field := range enabled {
		if v, ok := initial[field.Name]; ok {
			initial[field.Name] = fieldtypes.Convert(field.FieldType, v)
		}
	}

	ctrl := New(nil, opts...)
	data := ctrl.Initialize(initial, enabled, ent)
	if ctrl.ValidateForm(enabled) && ctrl.checker != nil {
		if errs := ctrl.checker.CheckRecord(data); len(errs) > 0 {
			ctrl.engine.Errors().Merge(errs)
		}
	}
	return data, ctrl.Errors()
}
