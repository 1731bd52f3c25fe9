package validation

import (
	"sort"
	"strings"
	"sync"
)

// FieldErrors maps field names to their ordered messages.
type FieldErrors map[string][]string

// Fields returns the sorted field names.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for name := range fe {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Errors is the per-form validation error set. A field has an entry only
// while it has at least one message. The zero value is ready to use.
type Errors struct {
	mu     sync.RWMutex
	fields map[string][]string
}

// NewErrors seeds the set, dropping empty entries.
func NewErrors(seed FieldErrors) *Errors {
	e := &Errors{}
	for name, msgs := range seed {
		e.Set(name, msgs...)
	}
	return e
}

// Set replaces the messages of a field. Messages are trimmed and
// de-duplicated; an empty result removes the entry.
func (e *Errors) Set(field string, messages ...string) {
	if e == nil {
		return
	}
	normalized := normalizeMessages(messages)
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(normalized) == 0 {
		delete(e.fields, field)
		return
	}
	if e.fields == nil {
		e.fields = make(map[string][]string)
	}
	e.fields[field] = normalized
}

// Get returns a copy of the messages of a field.
func (e *Errors) Get(field string) []string {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	msgs := e.fields[field]
	if len(msgs) == 0 {
		return nil
	}
	return append([]string(nil), msgs...)
}

// First returns the first message of a field, or "".
func (e *Errors) First(field string) string {
	msgs := e.Get(field)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}

// Has reports whether the field currently fails.
func (e *Errors) Has(field string) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.fields[field]
	return ok
}

// Clear removes the entry of a field.
func (e *Errors) Clear(field string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	delete(e.fields, field)
	e.mu.Unlock()
}

// ClearAll empties the set.
func (e *Errors) ClearAll() {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.fields = nil
	e.mu.Unlock()
}

// Len returns the number of failing fields.
func (e *Errors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.fields)
}

// Merge copies every entry of other into the set.
func (e *Errors) Merge(other FieldErrors) {
	for name, msgs := range other {
		e.Set(name, msgs...)
	}
}

// Snapshot returns an independent copy of the set.
func (e *Errors) Snapshot() FieldErrors {
	out := FieldErrors{}
	if e == nil {
		return out
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for name, msgs := range e.fields {
		out[name] = append([]string(nil), msgs...)
	}
	return out
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
