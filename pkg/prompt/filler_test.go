package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/location"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

type stubDriver struct {
	answers  []Answer
	pos      int
	prompts  []string
	kinds    []Kind
	messages []string
}

func (s *stubDriver) Ask(_ context.Context, q Question) (Answer, error) {
	s.prompts = append(s.prompts, q.Label)
	s.kinds = append(s.kinds, q.Kind)
	if s.pos >= len(s.answers) {
		return Answer{}, errors.New("no answer scripted")
	}
	a := s.answers[s.pos]
	s.pos++
	return a, nil
}

func (s *stubDriver) Notify(_ context.Context, msg string) error {
	s.messages = append(s.messages, msg)
	return nil
}

func texts(values ...string) []Answer {
	out := make([]Answer, len(values))
	for i, v := range values {
		out[i] = Answer{Text: v}
	}
	return out
}

func picks(idx ...int) []Answer {
	out := make([]Answer, len(idx))
	for i, v := range idx {
		out[i] = Answer{Picks: []int{v}}
	}
	return out
}

func TestFillCollectsTypedValues(t *testing.T) {
	fields := []model.FieldDescriptor{
		{Name: "first_name", DisplayName: "First name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true, SortOrder: 1},
		{Name: "weight", FieldType: model.FieldNumber, IsEnabled: true, SortOrder: 2},
		{Name: "consent", FieldType: model.FieldBoolean, IsEnabled: true, SortOrder: 3},
		{Name: "blood_type", FieldType: model.FieldSelect, IsEnabled: true, SortOrder: 4,
			Options: []model.Option{{Value: "A+", Label: "A positive"}, {Value: "O-", Label: "O negative"}}},
		{Name: "allergies", FieldType: model.FieldMultiSelect, IsEnabled: true, SortOrder: 5,
			Options: []model.Option{{Value: "nuts"}, {Value: "milk"}}},
		{Name: "notes", FieldType: model.FieldTextArea, IsEnabled: true, SortOrder: 6},
		{Name: "internal", FieldType: model.FieldHidden, IsEnabled: true, SortOrder: 7},
		{Name: "insurance", FieldType: model.FieldText, IsEnabled: false, SortOrder: 8},
	}
	driver := &stubDriver{answers: []Answer{
		{Text: "Jane"},
		{Text: "72.5"},
		{Yes: true},
		{Picks: []int{2}}, // "(none)" is prepended for optional selects
		{Picks: []int{1}},
		{Text: "<b>calm</b>"},
	}}
	ctrl := formstate.New(nil)
	ctrl.Initialize(nil, fields, nil)

	got, err := New(WithDriver(driver)).Fill(context.Background(), ctrl, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"first_name": "Jane",
		"weight":     72.5,
		"consent":    true,
		"blood_type": "O-",
		"allergies":  []string{"milk"},
		"notes":      "calm",
		"internal":   "",
	}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"First name", "weight", "consent", "blood_type", "allergies", "notes"}, driver.prompts); diff != "" {
		t.Fatalf("unexpected prompts (-want +got):\n%s", diff)
	}
	wantKinds := []Kind{KindText, KindText, KindConfirm, KindChoice, KindChoices, KindLongText}
	if diff := cmp.Diff(wantKinds, driver.kinds); diff != "" {
		t.Fatalf("unexpected prompt kinds (-want +got):\n%s", diff)
	}
}

func TestFillRepromptsInvalidAnswers(t *testing.T) {
	fields := []model.FieldDescriptor{
		{Name: "email", DisplayName: "Email", FieldType: model.FieldEmail, IsEnabled: true, IsRequired: true},
	}
	driver := &stubDriver{answers: texts("", "not-an-email", "jane@example.com")}
	ctrl := formstate.New(nil)
	ctrl.Initialize(nil, fields, nil)

	got, err := New(WithDriver(driver)).Fill(context.Background(), ctrl, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["email"].Text() != "jane@example.com" {
		t.Fatalf("expected final answer stored, got %q", got["email"].Text())
	}
	want := []string{
		"Invalid Email: " + validation.MsgRequired,
		"Invalid Email: " + validation.MsgEmail,
	}
	if diff := cmp.Diff(want, driver.messages); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestFillGivesUpAfterMaxAttempts(t *testing.T) {
	fields := []model.FieldDescriptor{{Name: "first_name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true}}
	driver := &stubDriver{answers: texts("", "")}
	ctrl := formstate.New(nil)
	ctrl.Initialize(nil, fields, nil)

	_, err := New(WithDriver(driver), WithMaxAttempts(2)).Fill(context.Background(), ctrl, fields)
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

type staticLocations struct{}

func (staticLocations) Countries(context.Context) ([]model.Country, error) {
	return []model.Country{{Code: "CA", Name: "Canada"}, {Code: "US", Name: "United States"}}, nil
}

func (staticLocations) States(_ context.Context, country string) ([]model.State, error) {
	if country != "US" {
		return nil, nil
	}
	return []model.State{{Code: "MA", Name: "Massachusetts"}, {Code: "NY", Name: "New York"}}, nil
}

func (staticLocations) Cities(_ context.Context, country, state string) ([]model.City, error) {
	if country != "US" || state != "NY" {
		return nil, nil
	}
	return []model.City{{Name: "Buffalo"}}, nil
}

func TestFillUsesLocationOptions(t *testing.T) {
	resolver := location.New(staticLocations{}, location.WithScheduler(location.NewManualScheduler()))
	fields := []model.FieldDescriptor{
		{Name: "country", FieldType: model.FieldSelect, IsEnabled: true, IsRequired: true, SortOrder: 1},
		{Name: "state", FieldType: model.FieldSelect, IsEnabled: true, IsRequired: true, SortOrder: 2},
		{Name: "city", FieldType: model.FieldSelect, IsEnabled: true, IsRequired: true, SortOrder: 3},
	}
	driver := &stubDriver{answers: picks(1, 1, 0)}
	ctrl := formstate.New(nil, formstate.WithLocationCascade(resolver))
	ctrl.Initialize(nil, fields, nil)

	got, err := New(WithDriver(driver), WithLocations(resolver)).Fill(context.Background(), ctrl, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"country": "US", "state": "NY", "city": "Buffalo"}
	if diff := cmp.Diff(want, got.Interface()); diff != "" {
		t.Fatalf("unexpected record (-want +got):\n%s", diff)
	}
}
