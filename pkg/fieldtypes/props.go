package fieldtypes

import "github.com/goliatone/go-formkit/pkg/model"

// BuildFieldProps combines the registry defaults of the field type with the
// descriptor's placeholder, required flag and rule attributes. Absent rules
// are omitted.
func (r *Registry) BuildFieldProps(field model.FieldDescriptor) map[string]any {
	desc := r.Describe(field.FieldType)
	props := map[string]any{
		"id":          field.Name,
		"name":        field.Name,
		"placeholder": field.Placeholder,
		"required":    field.EffectiveRequired(),
	}
	for k, v := range desc.DefaultProps {
		props[k] = v
	}
	if desc.NativeType != "" {
		props["type"] = desc.NativeType
	}
	if vr := field.ValidationRules; vr != nil {
		if vr.MinLength != nil {
			props["minlength"] = *vr.MinLength
		}
		if vr.MaxLength != nil {
			props["maxlength"] = *vr.MaxLength
		}
		if vr.Pattern != nil {
			props["pattern"] = *vr.Pattern
		}
		if vr.Min != nil {
			props["min"] = *vr.Min
		}
		if vr.Max != nil {
			props["max"] = *vr.Max
		}
		if vr.Step != nil {
			props["step"] = *vr.Step
		}
	}
	return props
}

// BuildFieldProps uses the built-in registry.
func BuildFieldProps(field model.FieldDescriptor) map[string]any {
	return defaultRegistry.BuildFieldProps(field)
}
