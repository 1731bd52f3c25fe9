package formstate

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/fieldtypes"
	"github.com/goliatone/go-formkit/pkg/location"
	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// SubmitRequest describes one submission attempt.
type SubmitRequest struct {
	Edit     bool
	RecordID string
	// Validate runs before the remote call; returning false drops the
	// submission.
	Validate func() bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithEngine replaces the validation engine.
func WithEngine(engine *validation.Engine) Option {
	return func(c *Controller) {
		if engine != nil {
			c.engine = engine
		}
	}
}

// WithLocationCascade wires country and state edits to resolver.
func WithLocationCascade(resolver *location.Resolver) Option {
	return func(c *Controller) {
		c.resolver = resolver
	}
}

// WithSchemaCheck validates the whole record before each submission.
func WithSchemaCheck(checker RecordChecker) Option {
	return func(c *Controller) {
		c.checker = checker
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics records submission outcomes and validation failures.
func WithMetrics(m *metrics.Collectors) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// Controller owns the form data of one form instance.
type Controller struct {
	records  RecordService
	engine   *validation.Engine
	resolver *location.Resolver
	checker  RecordChecker
	logger   zerolog.Logger
	metrics  *metrics.Collectors

	mu         sync.Mutex
	data       model.Record
	dirty      bool
	submitting bool
}

// New constructs a controller submitting through records.
func New(records RecordService, opts ...Option) *Controller {
	c := &Controller{
		records: records,
		logger:  zerolog.Nop(),
		data:    model.Record{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.engine == nil {
		c.engine = validation.New(validation.WithLogger(c.logger))
	}
	return c
}

// Initialize discards the current data and seeds one value per enabled
// field. A key present in initial wins, even when null; otherwise entity
// defaults apply, then the type default. Dirty state and errors are reset.
func (c *Controller) Initialize(initial model.Record, enabled []model.FieldDescriptor, ent *entity.Context) model.Record {
	defaults := ent.Defaults()

	data := make(model.Record, len(enabled))
	for _, field := range enabled {
		name := strings.TrimSpace(field.Name)
		if name == "" || !field.IsEnabled {
			continue
		}
		if v, ok := initial[name]; ok {
			data[name] = v
			continue
		}
		if v, ok := defaults[name]; ok {
			data[name] = v
			continue
		}
		data[name] = fieldtypes.DefaultValue(field)
	}

	c.mu.Lock()
	c.data = data
	c.dirty = false
	out := c.data.Clone()
	c.mu.Unlock()

	c.engine.Errors().ClearAll()
	return out
}

// ResetForm restores the type defaults of fields and clears dirty state and
// errors. Values of other fields are kept.
func (c *Controller) ResetForm(fields []model.FieldDescriptor) {
	c.mu.Lock()
	for _, field := range fields {
		if name := strings.TrimSpace(field.Name); name != "" {
			c.data[name] = fieldtypes.DefaultValue(field)
		}
	}
	c.dirty = false
	c.mu.Unlock()

	c.engine.Errors().ClearAll()
}

// UpdateField stores value and marks the form dirty. Equal values are
// ignored. It reports whether the data changed.
func (c *Controller) UpdateField(name string, value model.Value) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(name, value)
}

func (c *Controller) updateLocked(name string, value model.Value) bool {
	if current, ok := c.data[name]; ok && current.Equal(value) {
		return false
	}
	c.data[name] = value
	c.dirty = true

	if c.resolver == nil {
		return true
	}
	switch name {
	case location.FieldCountry:
		c.resolver.HandleCountryChange(c.countryCode(value), c.data)
	case location.FieldState:
		country := c.countryCode(c.data[location.FieldCountry])
		c.resolver.HandleStateChange(country, value.Text(), c.data)
	}
	return true
}

func (c *Controller) countryCode(v model.Value) string {
	text := strings.TrimSpace(v.Text())
	if code := c.resolver.ResolveCountryCode(text); code != "" {
		return code
	}
	return text
}

// UpdateMultipleFields applies every entry through UpdateField. Location
// parents go first so the cascade does not clear dependents set in the same
// batch; the remaining keys follow in sorted order.
func (c *Controller) UpdateMultipleFields(ctx context.Context, values map[string]model.Value) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, rj := cascadeRank(names[i]), cascadeRank(names[j])
		if ri != rj {
			return ri < rj
		}
		return names[i] < names[j]
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			c.updateLocked(trimmed, values[name])
		}
	}
	return nil
}

func cascadeRank(name string) int {
	switch strings.TrimSpace(name) {
	case location.FieldCountry:
		return 0
	case location.FieldState:
		return 1
	default:
		return 2
	}
}

// ValidateField checks value against the rules derived from field. A nil or
// disabled descriptor always passes and clears the field's errors.
func (c *Controller) ValidateField(name string, value model.Value, field *model.FieldDescriptor) validation.Result {
	if field == nil || !field.IsEnabled {
		c.engine.Errors().Clear(name)
		return validation.Result{OK: true}
	}
	res := c.engine.Validate(name, value, validation.BuildRulesFromConfig(*field))
	if !res.OK {
		c.metrics.ValidationFailure(name)
	}
	return res
}

// ValidateForm clears all errors and validates every descriptor against the
// current data.
func (c *Controller) ValidateForm(fields []model.FieldDescriptor) bool {
	c.engine.Errors().ClearAll()
	data := c.Data()
	for i := range fields {
		field := fields[i]
		c.ValidateField(field.Name, data[field.Name], &field)
	}
	return c.engine.Errors().Len() == 0
}

// Submit sends the current data to the record service. Guard rejections
// return (nil, nil); remote failures are returned and leave the form dirty.
func (c *Controller) Submit(ctx context.Context, req SubmitRequest) (model.Record, error) {
	if c.Submitting() {
		c.rejectInFlight()
		return nil, nil
	}
	if req.Validate != nil && !req.Validate() {
		c.metrics.Submission(metrics.OutcomeRejected)
		return nil, nil
	}
	id := strings.TrimSpace(req.RecordID)
	if req.Edit && id == "" {
		c.logger.Warn().Msg("edit submission without record id")
		c.metrics.Submission(metrics.OutcomeRejected)
		return nil, nil
	}

	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		c.rejectInFlight()
		return nil, nil
	}
	c.submitting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	payload := c.Data()
	if c.checker != nil {
		if errs := c.checker.CheckRecord(payload); len(errs) > 0 {
			c.engine.Errors().Merge(errs)
			c.metrics.Submission(metrics.OutcomeRejected)
			return nil, nil
		}
	}
	if c.records == nil {
		return nil, ErrNoRecordService
	}

	var (
		result  model.Record
		err     error
		outcome = metrics.OutcomeCreated
	)
	if req.Edit {
		outcome = metrics.OutcomeUpdated
		result, err = c.records.Update(ctx, id, payload)
	} else {
		result, err = c.records.Create(ctx, payload)
	}
	if err != nil {
		c.metrics.Submission(metrics.OutcomeFailed)
		c.logger.Error().Err(err).Bool("edit", req.Edit).Str("record_id", id).Msg("form submission failed")
		return nil, fmt.Errorf("formstate: submit: %w", err)
	}

	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()

	c.metrics.Submission(outcome)
	c.logger.Info().Bool("edit", req.Edit).Str("record_id", id).Msg("form submitted")
	return result, nil
}

func (c *Controller) rejectInFlight() {
	c.logger.Debug().Msg("submission already in flight")
	c.metrics.Submission(metrics.OutcomeRejected)
}

// Data returns a copy of the current form data.
func (c *Controller) Data() model.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.Clone()
}

// Value returns the current value of name.
func (c *Controller) Value(name string) (model.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[name]
	return v, ok
}

// Dirty reports whether the data changed since the last initialize, reset or
// successful submission.
func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Submitting reports whether a submission is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Errors returns a snapshot of the validation errors.
func (c *Controller) Errors() validation.FieldErrors { return c.engine.Errors().Snapshot() }

// FieldErrors returns the messages recorded for name.
func (c *Controller) FieldErrors(name string) []string { return c.engine.Errors().Get(name) }

// FieldError returns the first message recorded for name.
func (c *Controller) FieldError(name string) string { return c.engine.Errors().First(name) }

// HasErrors reports whether any field has errors.
func (c *Controller) HasErrors() bool { return c.engine.Errors().Len() > 0 }

// Valid is the negation of HasErrors.
func (c *Controller) Valid() bool { return !c.HasErrors() }

// ClearFieldError removes the errors of name.
func (c *Controller) ClearFieldError(name string) { c.engine.Errors().Clear(name) }

// ClearAllErrors removes every recorded error.
func (c *Controller) ClearAllErrors() { c.engine.Errors().ClearAll() }

// Engine exposes the validation engine for registering extra rules.
func (c *Controller) Engine() *validation.Engine { return c.engine }
