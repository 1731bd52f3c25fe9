package formconfig

import (
	"github.com/goliatone/go-formkit/pkg/model"
)

// CategoryGroup is one category of enabled fields.
type CategoryGroup struct {
	Name   string                  `json:"name"`
	Fields []model.FieldDescriptor `json:"fields"`
}

// Enabled returns the enabled descriptors in order.
func Enabled(fields []model.FieldDescriptor) []model.FieldDescriptor {
	return filter(fields, func(f model.FieldDescriptor) bool { return f.IsEnabled })
}

// Required returns descriptors that are both enabled and required.
func Required(fields []model.FieldDescriptor) []model.FieldDescriptor {
	return filter(fields, func(f model.FieldDescriptor) bool { return f.EffectiveRequired() })
}

// Core returns descriptors that cannot be disabled.
func Core(fields []model.FieldDescriptor) []model.FieldDescriptor {
	return filter(fields, func(f model.FieldDescriptor) bool { return f.IsCore })
}

// Configurable returns every non-core descriptor.
func Configurable(fields []model.FieldDescriptor) []model.FieldDescriptor {
	return filter(fields, func(f model.FieldDescriptor) bool { return !f.IsCore })
}

// ByCategory groups enabled descriptors by category. Groups keep the order in
// which categories first appear; fields inside a group are sorted by sort
// order with ties kept in list order.
func ByCategory(fields []model.FieldDescriptor) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, f := range Enabled(fields) {
		name := f.CategoryOrDefault()
		pos, ok := index[name]
		if !ok {
			pos = len(groups)
			index[name] = pos
			groups = append(groups, CategoryGroup{Name: name})
		}
		groups[pos].Fields = append(groups[pos].Fields, f)
	}
	for i := range groups {
		model.SortFields(groups[i].Fields)
	}
	return groups
}

// CategoryMap is ByCategory keyed by category name.
func CategoryMap(fields []model.FieldDescriptor) map[string][]model.FieldDescriptor {
	out := make(map[string][]model.FieldDescriptor)
	for _, group := range ByCategory(fields) {
		out[group.Name] = group.Fields
	}
	return out
}

func filter(fields []model.FieldDescriptor, keep func(model.FieldDescriptor) bool) []model.FieldDescriptor {
	out := make([]model.FieldDescriptor, 0, len(fields))
	for _, f := range fields {
		if keep(f) {
			out = append(out, f.Clone())
		}
	}
	return out
}
