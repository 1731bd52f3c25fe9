package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/model"
)

// OpenAPIVersion is the document version emitted by Document.
const OpenAPIVersion = "3.0.3"

// Extension keys carried on field properties.
const (
	ExtFieldType   = "x-formkit-field-type"
	ExtLabel       = "x-formkit-label"
	ExtCategory    = "x-formkit-category"
	ExtSortOrder   = "x-formkit-sort-order"
	ExtFieldID     = "x-formkit-field-id"
	ExtCore        = "x-formkit-core"
	ExtPlaceholder = "x-formkit-placeholder"
)

// ErrFormTypeRequired is returned for configurations without a form type.
var ErrFormTypeRequired = errors.New("schema: form type is required")

// Build converts the enabled fields of cfg into an object schema. Disabled
// fields are left out entirely.
func Build(cfg model.FormConfiguration) *openapi3.Schema {
	out := openapi3.NewObjectSchema()
	out.Title = cfg.FormType
	fields := cfg.Clone().Fields
	model.SortFields(fields)
	for _, field := range fields {
		field = field.Normalize()
		if !field.IsEnabled || field.Name == "" {
			continue
		}
		out.WithProperty(field.Name, FieldSchema(field))
		if field.EffectiveRequired() {
			out.Required = append(out.Required, field.Name)
		}
	}
	return out
}

// FieldSchema converts one descriptor.
func FieldSchema(field model.FieldDescriptor) *openapi3.Schema {
	var s *openapi3.Schema
	rules := rulesOf(field)

	switch field.FieldType.Normalize() {
	case model.FieldNumber:
		s = openapi3.NewFloat64Schema()
		if rules.Min != nil {
			s.WithMin(*rules.Min)
		}
		if rules.Max != nil {
			s.WithMax(*rules.Max)
		}
		if rules.Step != nil && *rules.Step > 0 {
			step := *rules.Step
			s.MultipleOf = &step
		}
	case model.FieldCheckbox, model.FieldBoolean:
		s = openapi3.NewBoolSchema()
	case model.FieldMultiSelect:
		items := openapi3.NewStringSchema()
		if enum := optionEnum(field.Options); len(enum) > 0 {
			items.WithEnum(enum...)
		}
		s = openapi3.NewArraySchema().WithItems(items)
	default:
		s = stringSchema(field)
	}

	s.Description = field.Description
	if !field.EffectiveRequired() {
		s.Nullable = true
	}
	s.Extensions = map[string]any{
		ExtFieldType: string(field.FieldType),
		ExtLabel:     field.Label(),
		ExtCategory:  field.CategoryOrDefault(),
		ExtSortOrder: field.SortOrder,
	}
	if field.ID != 0 {
		s.Extensions[ExtFieldID] = field.ID
	}
	if field.IsCore {
		s.Extensions[ExtCore] = true
	}
	if field.Placeholder != "" {
		s.Extensions[ExtPlaceholder] = field.Placeholder
	}
	return s
}

func stringSchema(field model.FieldDescriptor) *openapi3.Schema {
	s := openapi3.NewStringSchema()
	switch field.FieldType.Normalize() {
	case model.FieldEmail:
		s.WithFormat("email")
	case model.FieldURL:
		s.WithFormat("uri")
	case model.FieldDate:
		s.WithFormat("date")
	case model.FieldDateTime:
		s.WithFormat("date-time")
	case model.FieldTime:
		s.WithFormat("time")
	case model.FieldFile:
		s.WithFormat("binary")
	case model.FieldSelect, model.FieldRadio:
		if enum := optionEnum(field.Options); len(enum) > 0 {
			s.WithEnum(enum...)
		}
	}

	rules := rulesOf(field)
	if rules.MinLength != nil && *rules.MinLength > 0 {
		s.WithMinLength(int64(*rules.MinLength))
	}
	if rules.MaxLength != nil && *rules.MaxLength >= 0 {
		s.WithMaxLength(int64(*rules.MaxLength))
	}
	if rules.Pattern != nil && strings.TrimSpace(*rules.Pattern) != "" {
		s.WithPattern(*rules.Pattern)
	}
	return s
}

func rulesOf(field model.FieldDescriptor) model.ValidationRules {
	if field.ValidationRules == nil {
		return model.ValidationRules{}
	}
	return *field.ValidationRules
}

func optionEnum(options []model.Option) []any {
	if len(options) == 0 {
		return nil
	}
	out := make([]any, 0, len(options))
	for _, opt := range options {
		out = append(out, opt.Value)
	}
	return out
}

// Document wraps the schemas of cfgs into an OpenAPI document under
// components.schemas keyed by form type. The document is validated before it
// is returned.
func Document(ctx context.Context, title, version string, cfgs ...model.FormConfiguration) (*openapi3.T, error) {
	if strings.TrimSpace(title) == "" {
		title = "formkit"
	}
	if strings.TrimSpace(version) == "" {
		version = "1.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: OpenAPIVersion,
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}
	for _, cfg := range cfgs {
		formType := strings.TrimSpace(cfg.FormType)
		if formType == "" {
			return nil, ErrFormTypeRequired
		}
		doc.Components.Schemas[formType] = openapi3.NewSchemaRef("", Build(cfg))
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("schema: validate document: %w", err)
	}
	return doc, nil
}
