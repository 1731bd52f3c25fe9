package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/model"
)

// ErrFormTypeNotFound is returned when a document has no schema for the
// requested form type.
var ErrFormTypeNotFound = errors.New("schema: form type not found in document")

// Load parses and validates an OpenAPI document.
func Load(ctx context.Context, raw []byte) (*openapi3.T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("schema: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: load document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("schema: validate document: %w", err)
	}
	return doc, nil
}

// FormTypes lists the component schemas of doc.
func FormTypes(doc *openapi3.T) []string {
	if doc == nil || doc.Components == nil {
		return nil
	}
	out := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Configuration reads the configuration of formType back from doc. Fields
// come back enabled, ordered by their sort order extension.
func Configuration(doc *openapi3.T, formType string) (model.FormConfiguration, error) {
	formType = strings.TrimSpace(formType)
	if doc == nil || doc.Components == nil {
		return model.FormConfiguration{}, ErrFormTypeNotFound
	}
	ref, ok := doc.Components.Schemas[formType]
	if !ok || ref == nil || ref.Value == nil {
		return model.FormConfiguration{}, fmt.Errorf("%w: %s", ErrFormTypeNotFound, formType)
	}

	src := ref.Value
	required := make(map[string]bool, len(src.Required))
	for _, name := range src.Required {
		required[name] = true
	}

	cfg := model.FormConfiguration{FormType: formType}
	for name, prop := range src.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		field := fieldFromSchema(name, prop.Value)
		field.IsRequired = required[name]
		cfg.Fields = append(cfg.Fields, field.Normalize())
	}
	sort.SliceStable(cfg.Fields, func(i, j int) bool {
		a, b := cfg.Fields[i], cfg.Fields[j]
		if a.SortOrder == b.SortOrder {
			return a.Name < b.Name
		}
		return a.SortOrder < b.SortOrder
	})
	return cfg, nil
}

func fieldFromSchema(name string, s *openapi3.Schema) model.FieldDescriptor {
	ext := s.Extensions
	field := model.FieldDescriptor{
		ID:          extInt(ext[ExtFieldID]),
		Name:        name,
		DisplayName: extString(ext[ExtLabel]),
		FieldType:   model.FieldType(extString(ext[ExtFieldType])),
		IsEnabled:   true,
		IsCore:      extBool(ext[ExtCore]),
		SortOrder:   extInt(ext[ExtSortOrder]),
		Category:    extString(ext[ExtCategory]),
		Description: s.Description,
		Placeholder: extString(ext[ExtPlaceholder]),
	}
	if field.FieldType == "" {
		field.FieldType = inferFieldType(s)
	}

	enum := s.Enum
	if s.Items != nil && s.Items.Value != nil {
		enum = s.Items.Value.Enum
	}
	for _, raw := range enum {
		value := fmt.Sprint(raw)
		field.Options = append(field.Options, model.Option{Value: value, Label: value})
	}

	rules := &model.ValidationRules{}
	if s.MinLength > 0 {
		rules.MinLength = model.IntPtr(int(s.MinLength))
	}
	if s.MaxLength != nil {
		rules.MaxLength = model.IntPtr(int(*s.MaxLength))
	}
	if s.Pattern != "" {
		rules.Pattern = model.StringPtr(s.Pattern)
	}
	if s.Min != nil {
		rules.Min = model.FloatPtr(*s.Min)
	}
	if s.Max != nil {
		rules.Max = model.FloatPtr(*s.Max)
	}
	if s.MultipleOf != nil {
		rules.Step = model.FloatPtr(*s.MultipleOf)
	}
	if !rules.IsZero() {
		field.ValidationRules = rules
	}
	return field
}

func inferFieldType(s *openapi3.Schema) model.FieldType {
	switch {
	case s.Type.Is(openapi3.TypeNumber), s.Type.Is(openapi3.TypeInteger):
		return model.FieldNumber
	case s.Type.Is(openapi3.TypeBoolean):
		return model.FieldBoolean
	case s.Type.Is(openapi3.TypeArray):
		return model.FieldMultiSelect
	}
	switch s.Format {
	case "email":
		return model.FieldEmail
	case "uri":
		return model.FieldURL
	case "date":
		return model.FieldDate
	case "date-time":
		return model.FieldDateTime
	case "time":
		return model.FieldTime
	case "binary":
		return model.FieldFile
	}
	if len(s.Enum) > 0 {
		return model.FieldSelect
	}
	return model.FieldText
}

func extString(raw any) string {
	s, _ := raw.(string)
	return s
}

func extBool(raw any) bool {
	b, _ := raw.(bool)
	return b
}

func extInt(raw any) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
