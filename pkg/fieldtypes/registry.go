package fieldtypes

import (
	"sort"
	"sync"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Widget identifiers exposed by the registry.
const (
	WidgetInput    = "input"
	WidgetTextArea = "textarea"
	WidgetSelect   = "select"
)

// Descriptor tells a renderer how to draw a field type.
type Descriptor struct {
	Widget       string         `json:"widget"`
	NativeType   string         `json:"type,omitempty"`
	DefaultProps map[string]any `json:"props"`
}

func (d Descriptor) clone() Descriptor {
	props := make(map[string]any, len(d.DefaultProps))
	for k, v := range d.DefaultProps {
		props[k] = v
	}
	d.DefaultProps = props
	return d
}

// Registry resolves field type tags to descriptors. Registrations replace
// earlier entries for the same tag.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.FieldType]Descriptor
}

// NewRegistry constructs a registry with the built-in field types.
func NewRegistry() *Registry {
	reg := &Registry{entries: make(map[model.FieldType]Descriptor)}
	reg.registerBuiltins()
	return reg
}

// Register adds or replaces the descriptor of a tag. Empty tags are ignored.
func (r *Registry) Register(tag model.FieldType, desc Descriptor) {
	if r == nil {
		return
	}
	tag = tag.Normalize()
	if tag == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[model.FieldType]Descriptor)
	}
	r.entries[tag] = desc.clone()
}

// Known reports whether the tag has a registered descriptor.
func (r *Registry) Known(tag model.FieldType) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[tag.Normalize()]
	return ok
}

// Describe returns a fresh descriptor for tag, falling back to text.
func (r *Registry) Describe(tag model.FieldType) Descriptor {
	if r == nil {
		return defaultRegistry.Describe(tag)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.entries[tag.Normalize()]
	if !ok {
		desc = r.entries[model.FieldText]
	}
	return desc.clone()
}

// Types returns every registered tag, sorted.
func (r *Registry) Types() []model.FieldType {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.FieldType, 0, len(r.entries))
	for tag := range r.entries {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) registerBuiltins() {
	input := func(native string) Descriptor {
		return Descriptor{Widget: WidgetInput, NativeType: native}
	}
	r.Register(model.FieldText, input("text"))
	r.Register(model.FieldEmail, input("email"))
	r.Register(model.FieldTel, input("tel"))
	r.Register(model.FieldPhone, input("tel"))
	r.Register(model.FieldURL, input("url"))
	r.Register(model.FieldPassword, input("password"))
	r.Register(model.FieldNumber, input("number"))
	r.Register(model.FieldDate, input("date"))
	r.Register(model.FieldDateTime, input("datetime-local"))
	r.Register(model.FieldTime, input("time"))
	r.Register(model.FieldTextArea, Descriptor{Widget: WidgetTextArea, DefaultProps: map[string]any{"rows": 3}})
	r.Register(model.FieldSelect, Descriptor{Widget: WidgetSelect})
	r.Register(model.FieldMultiSelect, Descriptor{Widget: WidgetSelect, DefaultProps: map[string]any{"multiple": true}})
	r.Register(model.FieldCheckbox, input("checkbox"))
	r.Register(model.FieldBoolean, input("checkbox"))
	r.Register(model.FieldRadio, input("radio"))
	r.Register(model.FieldFile, input("file"))
	r.Register(model.FieldHidden, input("hidden"))
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry holding the built-in types.
func Default() *Registry { return defaultRegistry }

// Describe resolves tag against the built-in registry.
func Describe(tag model.FieldType) Descriptor { return defaultRegistry.Describe(tag) }

// AllTypes lists the built-in tags.
func AllTypes() []model.FieldType { return defaultRegistry.Types() }

func inSet(tag model.FieldType, set ...model.FieldType) bool {
	tag = tag.Normalize()
	for _, candidate := range set {
		if tag == candidate {
			return true
		}
	}
	return false
}

// RequiresOptions reports choice types that need an option list.
func RequiresOptions(tag model.FieldType) bool {
	return inSet(tag, model.FieldSelect, model.FieldMultiSelect, model.FieldRadio)
}

// IsTextBased reports free-text input types.
func IsTextBased(tag model.FieldType) bool {
	return inSet(tag, model.FieldText, model.FieldEmail, model.FieldTel, model.FieldPhone,
		model.FieldURL, model.FieldPassword, model.FieldTextArea)
}

// IsNumeric reports numeric input types.
func IsNumeric(tag model.FieldType) bool { return inSet(tag, model.FieldNumber) }

// IsDateTime reports date and time input types.
func IsDateTime(tag model.FieldType) bool {
	return inSet(tag, model.FieldDate, model.FieldDateTime, model.FieldTime)
}

// IsBoolean reports checkbox style types.
func IsBoolean(tag model.FieldType) bool { return inSet(tag, model.FieldCheckbox, model.FieldBoolean) }
