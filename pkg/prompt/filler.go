// Package prompt fills a form interactively in the terminal. Fields are asked
// in sort order, answers go through the form state controller so the location
// cascade and validation behave as they do in any other view, and invalid
// answers are reported and asked again.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/fieldtypes"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/location"
	"github.com/goliatone/go-formkit/pkg/model"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when a field keeps failing validation.
	ErrTooManyAttempts = errors.New("prompt: too many invalid answers")
)

// DefaultMaxAttempts bounds re-prompts of one field.
const DefaultMaxAttempts = 5

const skipOption = "(none)"

// Option configures a Filler.
type Option func(*Filler)

// WithDriver overrides the prompt driver.
func WithDriver(driver Driver) Option {
	return func(f *Filler) {
		if driver != nil {
			f.driver = driver
		}
	}
}

// WithLocations supplies country, state and city options for fields that
// carry none of their own.
func WithLocations(resolver *location.Resolver) Option {
	return func(f *Filler) {
		f.locations = resolver
	}
}

// WithEntity supplies nationality options.
func WithEntity(ent *entity.Context) Option {
	return func(f *Filler) {
		f.entity = ent
	}
}

// WithMaxAttempts bounds re-prompts of one field.
func WithMaxAttempts(n int) Option {
	return func(f *Filler) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// Filler asks for each enabled field of a form.
type Filler struct {
	driver      Driver
	locations   *location.Resolver
	entity      *entity.Context
	maxAttempts int
}

// New constructs a Filler. Without WithDriver it prompts on the terminal.
func New(opts ...Option) *Filler {
	f := &Filler{maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver(nil)
	}
	return f
}

// Fill prompts for every enabled, non hidden field and stores the answers in
// ctrl. It returns the resulting data.
func (f *Filler) Fill(ctx context.Context, ctrl *formstate.Controller, fields []model.FieldDescriptor) (model.Record, error) {
	if ctrl == nil {
		return nil, errors.New("prompt: controller is required")
	}
	ordered := append([]model.FieldDescriptor(nil), fields...)
	model.SortFields(ordered)

	for _, field := range ordered {
		field = field.Normalize()
		if !field.IsEnabled || field.FieldType == model.FieldHidden {
			continue
		}
		if err := f.fillField(ctx, ctrl, field); err != nil {
			return nil, err
		}
	}
	return ctrl.Data(), nil
}

func (f *Filler) fillField(ctx context.Context, ctrl *formstate.Controller, field model.FieldDescriptor) error {
	field.Options = f.options(ctx, ctrl, field)
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		current, _ := ctrl.Value(field.Name)
		value, err := f.ask(ctx, field, current)
		if err != nil {
			return err
		}
		res := ctrl.ValidateField(field.Name, value, &field)
		if res.OK {
			ctrl.UpdateField(field.Name, value)
			return nil
		}
		for _, msg := range res.Errors {
			if err := f.driver.Notify(ctx, fmt.Sprintf("Invalid %s: %s", field.Label(), msg)); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Name)
}

func (f *Filler) ask(ctx context.Context, field model.FieldDescriptor, current model.Value) (model.Value, error) {
	q := Question{Field: field.Name, Label: field.Label(), Help: field.Description}
	if q.Help == "" {
		q.Help = field.Placeholder
	}
	labels, values := optionLists(field.Options)

	switch {
	case fieldtypes.IsBoolean(field.FieldType):
		q.Kind = KindConfirm
		q.DefaultYes, _ = current.Truth()
	case field.FieldType == model.FieldMultiSelect:
		q.Kind = KindChoices
		q.Choices = labels
		for _, item := range current.Items() {
			if idx := indexOf(values, item); idx >= 0 {
				q.Selected = append(q.Selected, idx)
			}
		}
	case len(field.Options) > 0:
		if !field.EffectiveRequired() {
			labels = append([]string{skipOption}, labels...)
			values = append([]string{""}, values...)
		}
		q.Kind = KindChoice
		q.Choices = labels
		if idx := indexOf(values, current.Text()); idx >= 0 {
			q.Selected = []int{idx}
		}
	case field.FieldType == model.FieldTextArea:
		q.Kind = KindLongText
		q.Default = current.Text()
	case field.FieldType == model.FieldPassword:
		q.Kind = KindSecret
	default:
		q.Kind = KindText
		q.Default = current.Text()
		if n, ok := current.Float(); ok && n == 0 && fieldtypes.IsNumeric(field.FieldType) {
			q.Default = ""
		}
	}

	answer, err := f.driver.Ask(ctx, q)
	if err != nil {
		return model.Null(), err
	}
	switch q.Kind {
	case KindConfirm:
		return model.Bool(answer.Yes), nil
	case KindChoices:
		picked := make([]string, 0, len(answer.Picks))
		for _, idx := range answer.Picks {
			if idx >= 0 && idx < len(values) {
				picked = append(picked, values[idx])
			}
		}
		return model.List(picked...), nil
	case KindChoice:
		idx := answer.Pick()
		if idx < 0 || idx >= len(values) {
			return model.String(""), nil
		}
		return model.String(values[idx]), nil
	case KindText:
		return fieldtypes.ParseInput(field.FieldType, strings.TrimSpace(answer.Text)), nil
	default:
		return fieldtypes.ParseInput(field.FieldType, answer.Text), nil
	}
}

// options returns the static options of field, or the dynamic ones for
// location and nationality fields.
func (f *Filler) options(ctx context.Context, ctrl *formstate.Controller, field model.FieldDescriptor) []model.Option {
	if len(field.Options) > 0 {
		return field.Options
	}
	if field.Name == "nationality_id" && f.entity != nil {
		return f.entity.NationalityOptions()
	}
	if f.locations == nil {
		return nil
	}
	switch field.Name {
	case location.FieldCountry:
		f.locations.LoadCountries(ctx)
		return f.locations.CountryOptions()
	case location.FieldState:
		country, _ := ctrl.Value(location.FieldCountry)
		code := f.locations.ResolveCountryCode(country.Text())
		if code == "" {
			return nil
		}
		f.locations.LoadStatesForCountryImmediate(ctx, code)
		return f.locations.StateOptions()
	case location.FieldCity:
		country, _ := ctrl.Value(location.FieldCountry)
		state, _ := ctrl.Value(location.FieldState)
		code := f.locations.ResolveCountryCode(country.Text())
		if code == "" {
			return nil
		}
		f.locations.LoadCitiesForCountryAndStateImmediate(ctx, code, state.Text())
		return f.locations.CityOptions()
	}
	return nil
}

func optionLists(options []model.Option) ([]string, []string) {
	labels := make([]string, len(options))
	values := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
		if labels[i] == "" {
			labels[i] = opt.Value
		}
		values[i] = opt.Value
	}
	return labels, values
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}
	return -1
}
