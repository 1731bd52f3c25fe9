package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// FieldType is the abstract input tag attached to a field descriptor.
type FieldType string

const (
	FieldText        FieldType = "text"
	FieldEmail       FieldType = "email"
	FieldTel         FieldType = "tel"
	FieldPhone       FieldType = "phone"
	FieldURL         FieldType = "url"
	FieldPassword    FieldType = "password"
	FieldNumber      FieldType = "number"
	FieldDate        FieldType = "date"
	FieldDateTime    FieldType = "datetime"
	FieldTime        FieldType = "time"
	FieldTextArea    FieldType = "textarea"
	FieldSelect      FieldType = "select"
	FieldMultiSelect FieldType = "multiselect"
	FieldCheckbox    FieldType = "checkbox"
	FieldBoolean     FieldType = "boolean"
	FieldRadio       FieldType = "radio"
	FieldFile        FieldType = "file"
	FieldHidden      FieldType = "hidden"
)

// Normalize lower-cases and trims the tag.
func (t FieldType) Normalize() FieldType {
	return FieldType(strings.ToLower(strings.TrimSpace(string(t))))
}

// DefaultCategory groups descriptors without a category.
const DefaultCategory = "Other"

// Option is one entry of a choice field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UnmarshalJSON accepts either a bare string or a {value,label} object.
func (o *Option) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		o.Value, o.Label = s, s
		return nil
	}
	var raw struct {
		Value json.RawMessage `json:"value"`
		Label string          `json:"label"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	var v Value
	if len(raw.Value) > 0 {
		if err := v.UnmarshalJSON(raw.Value); err != nil {
			return err
		}
	}
	o.Value = v.Text()
	o.Label = raw.Label
	if o.Label == "" {
		o.Label = o.Value
	}
	return nil
}

// ValidationRules are the optional descriptor-level constraints. Nil pointers
// mean the key was absent.
type ValidationRules struct {
	MinLength *int     `json:"min_length,omitempty" yaml:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty" yaml:"max_length,omitempty"`
	Pattern   *string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Step      *float64 `json:"step,omitempty" yaml:"step,omitempty"`
}

// IsZero reports whether no rule is set.
func (r *ValidationRules) IsZero() bool {
	return r == nil || (r.MinLength == nil && r.MaxLength == nil && r.Pattern == nil &&
		r.Min == nil && r.Max == nil && r.Step == nil)
}

// Clone copies the rules including pointed-to values.
func (r *ValidationRules) Clone() *ValidationRules {
	if r == nil {
		return nil
	}
	out := &ValidationRules{}
	if r.MinLength != nil {
		out.MinLength = IntPtr(*r.MinLength)
	}
	if r.MaxLength != nil {
		out.MaxLength = IntPtr(*r.MaxLength)
	}
	if r.Pattern != nil {
		out.Pattern = StringPtr(*r.Pattern)
	}
	if r.Min != nil {
		out.Min = FloatPtr(*r.Min)
	}
	if r.Max != nil {
		out.Max = FloatPtr(*r.Max)
	}
	if r.Step != nil {
		out.Step = FloatPtr(*r.Step)
	}
	return out
}

// FieldDescriptor describes one configurable form field.
type FieldDescriptor struct {
	ID              int              `json:"field_id" yaml:"field_id"`
	Name            string           `json:"name" yaml:"name"`
	DisplayName     string           `json:"display_name" yaml:"display_name"`
	CustomLabel     string           `json:"custom_label,omitempty" yaml:"custom_label,omitempty"`
	FieldType       FieldType        `json:"field_type" yaml:"field_type"`
	IsEnabled       bool             `json:"is_enabled" yaml:"is_enabled"`
	IsRequired      bool             `json:"is_required" yaml:"is_required"`
	IsCore          bool             `json:"is_core" yaml:"is_core"`
	ValidationRules *ValidationRules `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
	Options         []Option         `json:"options,omitempty" yaml:"options,omitempty"`
	SortOrder       int              `json:"sort_order" yaml:"sort_order"`
	Category        string           `json:"category" yaml:"category"`
	Description     string           `json:"description" yaml:"description"`
	Placeholder     string           `json:"placeholder_text" yaml:"placeholder_text"`
}

// Label returns the user-facing label: custom label, display name, then the
// raw field name.
func (f FieldDescriptor) Label() string {
	if label := strings.TrimSpace(f.CustomLabel); label != "" {
		return label
	}
	if label := strings.TrimSpace(f.DisplayName); label != "" {
		return label
	}
	return f.Name
}

// CategoryOrDefault returns the category, or DefaultCategory when empty.
func (f FieldDescriptor) CategoryOrDefault() string {
	if c := strings.TrimSpace(f.Category); c != "" {
		return c
	}
	return DefaultCategory
}

// Active reports whether the field is enabled and required checks apply.
func (f FieldDescriptor) Active() bool { return f.IsEnabled }

// EffectiveRequired ignores the required flag of disabled fields.
func (f FieldDescriptor) EffectiveRequired() bool { return f.IsEnabled && f.IsRequired }

// Normalize enforces descriptor invariants: trimmed keys, lower-cased type,
// core fields always enabled.
func (f FieldDescriptor) Normalize() FieldDescriptor {
	f.Name = strings.TrimSpace(f.Name)
	f.FieldType = f.FieldType.Normalize()
	switch f.Name {
	case "country", "city":
		// dependent selects fed by the location cascade
		f.FieldType = FieldSelect
	}
	if f.IsCore {
		f.IsEnabled = true
	}
	return f
}

// Clone returns a deep copy.
func (f FieldDescriptor) Clone() FieldDescriptor {
	f.ValidationRules = f.ValidationRules.Clone()
	if f.Options != nil {
		f.Options = append([]Option(nil), f.Options...)
	}
	return f
}

// FormConfiguration is the ordered descriptor list of one form type.
type FormConfiguration struct {
	FormType string            `json:"form_type" yaml:"form_type"`
	Fields   []FieldDescriptor `json:"fields" yaml:"fields"`
}

// Clone returns a deep copy.
func (c FormConfiguration) Clone() FormConfiguration {
	out := FormConfiguration{FormType: c.FormType}
	if c.Fields != nil {
		out.Fields = make([]FieldDescriptor, len(c.Fields))
		for i, f := range c.Fields {
			out.Fields[i] = f.Clone()
		}
	}
	return out
}

// Field looks up a descriptor by name.
func (c FormConfiguration) Field(name string) (FieldDescriptor, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// FieldByID looks up a descriptor by id.
func (c FormConfiguration) FieldByID(id int) (FieldDescriptor, bool) {
	for _, f := range c.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// SortFields orders descriptors by sort order, keeping insertion order for
// ties.
func SortFields(fields []FieldDescriptor) {
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].SortOrder < fields[j].SortOrder
	})
}

// FieldPatch is a partial descriptor update. Nil members are left untouched.
type FieldPatch struct {
	FieldID         int              `json:"field_id,omitempty"`
	IsEnabled       *bool            `json:"is_enabled,omitempty"`
	IsRequired      *bool            `json:"is_required,omitempty"`
	CustomLabel     *string          `json:"custom_label,omitempty"`
	SortOrder       *int             `json:"sort_order,omitempty"`
	ValidationRules *ValidationRules `json:"custom_validation,omitempty"`
}

// Apply merges the patch into f.
func (p FieldPatch) Apply(f FieldDescriptor) FieldDescriptor {
	if p.IsEnabled != nil {
		f.IsEnabled = *p.IsEnabled
	}
	if p.IsRequired != nil {
		f.IsRequired = *p.IsRequired
	}
	if p.CustomLabel != nil {
		f.CustomLabel = *p.CustomLabel
	}
	if p.SortOrder != nil {
		f.SortOrder = *p.SortOrder
	}
	if p.ValidationRules != nil {
		f.ValidationRules = p.ValidationRules.Clone()
	}
	return f
}

// FieldOrder assigns a sort order to a field.
type FieldOrder struct {
	FieldID   int `json:"field_id" yaml:"field_id"`
	SortOrder int `json:"sort_order" yaml:"sort_order"`
}

// FormType is one entry of the form type catalogue.
type FormType struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// FormMetadata is the complete configuration of a form type for an entity.
type FormMetadata struct {
	FormType     string            `json:"form_type"`
	DisplayName  string            `json:"display_name"`
	Description  string            `json:"description"`
	Fields       []FieldDescriptor `json:"fields"`
	EntityID     int               `json:"entity_id"`
	LastModified time.Time         `json:"last_modified"`
}

func BoolPtr(v bool) *bool        { return &v }
func IntPtr(v int) *int           { return &v }
func StringPtr(v string) *string  { return &v }
func FloatPtr(v float64) *float64 { return &v }
