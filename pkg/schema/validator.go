package schema

import (
	"errors"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Validator checks records against an object schema.
type Validator struct {
	schema *openapi3.Schema
}

// NewValidator builds the schema of cfg and wraps it.
func NewValidator(cfg model.FormConfiguration) *Validator {
	return &Validator{schema: Build(cfg)}
}

// FromSchema wraps an existing object schema, e.g. one read back with
// Configuration.
func FromSchema(s *openapi3.Schema) *Validator {
	if s == nil {
		s = openapi3.NewObjectSchema()
	}
	return &Validator{schema: s}
}

// Schema returns the wrapped schema.
func (v *Validator) Schema() *openapi3.Schema { return v.schema }

// Validate checks every property present in record. Required properties
// that are missing or empty report the required message; empty optional
// values are not checked. Keys without a property are ignored.
func (v *Validator) Validate(record model.Record) validation.FieldErrors {
	out := validation.FieldErrors{}
	if v == nil || v.schema == nil {
		return out
	}

	required := make(map[string]struct{}, len(v.schema.Required))
	for _, name := range v.schema.Required {
		required[name] = struct{}{}
		if value, ok := record[name]; !ok || value.IsEmpty() {
			out[name] = []string{validation.MsgRequired}
		}
	}

	names := make([]string, 0, len(v.schema.Properties))
	for name := range v.schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, ok := record[name]
		if !ok || value.IsEmpty() {
			continue
		}
		ref := v.schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		if err := ref.Value.VisitJSON(jsonValue(value)); err != nil {
			out[name] = append(out[name], reason(err))
		}
	}
	return out
}

// CheckRecord implements formstate.RecordChecker.
func (v *Validator) CheckRecord(record model.Record) validation.FieldErrors {
	return v.Validate(record)
}

// jsonValue converts v into the shapes VisitJSON expects from decoded JSON.
func jsonValue(v model.Value) any {
	if v.Kind() != model.KindList {
		return v.Interface()
	}
	items := v.Items()
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func reason(err error) string {
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) && schemaErr.Reason != "" {
		return schemaErr.Reason
	}
	return err.Error()
}
