package validation

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/model"
)

// Result is the outcome of validating one field.
type Result struct {
	OK     bool
	Errors []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for unknown rule tags.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used by date-relative checks.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithCheck registers or replaces a named check.
func WithCheck(tag string, check CheckFunc) Option {
	return func(e *Engine) {
		tag = strings.TrimSpace(tag)
		if tag == "" || check == nil {
			return
		}
		e.checks[tag] = check
	}
}

// Engine evaluates rule lists and tracks per-field outcomes.
type Engine struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	rules  map[string][]Rule
	errors *Errors
	logger zerolog.Logger
	now    func() time.Time
}

// New constructs an engine with the built-in checks registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		checks: builtinChecks(),
		rules:  make(map[string][]Rule),
		errors: &Errors{},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Errors exposes the engine's error set.
func (e *Engine) Errors() *Errors {
	if e == nil {
		return nil
	}
	return e.errors
}

// Check evaluates rules against value without recording the outcome.
func (e *Engine) Check(value model.Value, rules []Rule) []string {
	var messages []string
	for _, rule := range rules {
		if msg := e.evaluate(value, rule); msg != "" {
			messages = append(messages, msg)
		}
	}
	return messages
}

// Validate evaluates every rule in order and records the outcome for field.
func (e *Engine) Validate(field string, value model.Value, rules []Rule) Result {
	messages := normalizeMessages(e.Check(value, rules))
	if len(messages) == 0 {
		e.errors.Clear(field)
		return Result{OK: true}
	}
	e.errors.Set(field, messages...)
	return Result{OK: false, Errors: messages}
}

func (e *Engine) evaluate(value model.Value, rule Rule) string {
	switch r := rule.(type) {
	case Predicate:
		if r == nil {
			return ""
		}
		return r(value)
	case Named:
		e.mu.RLock()
		check, ok := e.checks[r.Tag]
		e.mu.RUnlock()
		if !ok {
			e.logger.Debug().Str("rule", r.Tag).Msg("validation: unknown rule ignored")
			return ""
		}
		msg := check(value, r.Arg)
		if msg != "" && r.Message != "" {
			return r.Message
		}
		return msg
	default:
		return ""
	}
}

// SetRules replaces the registered rules of a field.
func (e *Engine) SetRules(field string, rules ...Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[field] = append([]Rule(nil), rules...)
}

// AddRule appends a rule to a field.
func (e *Engine) AddRule(field string, rule Rule) {
	if rule == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[field] = append(e.rules[field], rule)
}

// RemoveRule removes the rule at index, or every rule of the field when index
// is negative.
func (e *Engine) RemoveRule(field string, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 {
		delete(e.rules, field)
		return
	}
	current := e.rules[field]
	if index >= len(current) {
		return
	}
	next := make([]Rule, 0, len(current)-1)
	next = append(next, current[:index]...)
	e.rules[field] = append(next, current[index+1:]...)
}

// Rules returns a copy of the registered rules of a field.
func (e *Engine) Rules(field string) []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Rule(nil), e.rules[field]...)
}

// ValidateField validates value against the registered rules of field.
func (e *Engine) ValidateField(field string, value model.Value) Result {
	return e.Validate(field, value, e.Rules(field))
}

// ValidateFields validates every entry of record. Descriptors found in
// configs take precedence over registered rules.
func (e *Engine) ValidateFields(record model.Record, configs map[string]model.FieldDescriptor) map[string]bool {
	results := make(map[string]bool, len(record))
	for _, name := range record.Keys() {
		rules := e.Rules(name)
		if cfg, ok := configs[name]; ok {
			rules = BuildRulesFromConfig(cfg)
		}
		results[name] = e.Validate(name, record[name], rules).OK
	}
	return results
}

// ValidateAll reports whether every entry of record passes.
func (e *Engine) ValidateAll(record model.Record, configs map[string]model.FieldDescriptor) bool {
	for _, ok := range e.ValidateFields(record, configs) {
		if !ok {
			return false
		}
	}
	return true
}
