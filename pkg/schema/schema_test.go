package schema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func patientConfig() model.FormConfiguration {
	return model.FormConfiguration{
		FormType: "patient",
		Fields: []model.FieldDescriptor{
			{ID: 1, Name: "first_name", DisplayName: "First name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true, IsCore: true, Category: "Personal", SortOrder: 1,
				ValidationRules: &model.ValidationRules{MaxLength: model.IntPtr(5)}},
			{ID: 2, Name: "weight", FieldType: model.FieldNumber, IsEnabled: true, SortOrder: 3,
				ValidationRules: &model.ValidationRules{Min: model.FloatPtr(0), Max: model.FloatPtr(500)}},
			{ID: 3, Name: "blood_type", FieldType: model.FieldSelect, IsEnabled: true, SortOrder: 2,
				Options: []model.Option{{Value: "A+", Label: "A+"}, {Value: "O-", Label: "O-"}}},
			{ID: 4, Name: "allergies", FieldType: model.FieldMultiSelect, IsEnabled: true, SortOrder: 4,
				Options: []model.Option{{Value: "nuts", Label: "Nuts"}, {Value: "milk", Label: "Milk"}}},
			{ID: 5, Name: "consent", FieldType: model.FieldBoolean, IsEnabled: true, SortOrder: 5},
			{ID: 6, Name: "insurance", FieldType: model.FieldText, IsEnabled: false, IsRequired: true, SortOrder: 6},
		},
	}
}

func TestBuildSkipsDisabledFields(t *testing.T) {
	s := Build(patientConfig())

	if _, ok := s.Properties["insurance"]; ok {
		t.Fatalf("expected disabled field to be omitted")
	}
	if diff := cmp.Diff([]string{"first_name"}, s.Required); diff != "" {
		t.Fatalf("unexpected required list (-want +got):\n%s", diff)
	}
	first := s.Properties["first_name"].Value
	if first.MaxLength == nil || *first.MaxLength != 5 {
		t.Fatalf("expected maxLength 5, got %v", first.MaxLength)
	}
	if first.Nullable {
		t.Fatalf("expected required field to be non nullable")
	}
	if got := first.Extensions[ExtLabel]; got != "First name" {
		t.Fatalf("expected label extension, got %v", got)
	}
}

func TestDocumentValidates(t *testing.T) {
	doc, err := Document(context.Background(), "Clinic forms", "1.0.0", patientConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"patient"}, FormTypes(doc)); diff != "" {
		t.Fatalf("unexpected form types (-want +got):\n%s", diff)
	}

	if _, err := Document(context.Background(), "", "", model.FormConfiguration{}); !errors.Is(err, ErrFormTypeRequired) {
		t.Fatalf("expected ErrFormTypeRequired, got %v", err)
	}
}

func TestValidatorReportsPerField(t *testing.T) {
	v := NewValidator(patientConfig())
	record := model.Record{
		"first_name": model.String("Jonathan"),
		"weight":     model.String("heavy"),
		"blood_type": model.String("Z"),
		"allergies":  model.List("nuts", "dust"),
		"consent":    model.Bool(true),
		"unknown":    model.String("ignored"),
	}

	errs := v.Validate(record)

	if diff := cmp.Diff([]string{"allergies", "blood_type", "first_name", "weight"}, errs.Fields()); diff != "" {
		t.Fatalf("unexpected failing fields (-want +got):\n%s", diff)
	}
	if got := errs["first_name"][0]; got != "maximum string length is 5" {
		t.Fatalf("unexpected first_name reason %q", got)
	}
}

func TestValidatorRequiredAndOptional(t *testing.T) {
	v := NewValidator(patientConfig())

	errs := v.Validate(model.Record{"first_name": model.String(""), "blood_type": model.String("")})
	want := validation.FieldErrors{"first_name": {validation.MsgRequired}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}

	errs = v.CheckRecord(model.Record{
		"first_name": model.String("Jane"),
		"weight":     model.Number(70),
		"blood_type": model.String("O-"),
		"allergies":  model.List("milk"),
	})
	if len(errs) != 0 {
		t.Fatalf("expected valid record, got %v", errs)
	}
}

func TestConfigurationRoundTrip(t *testing.T) {
	doc, err := Document(context.Background(), "forms", "1", patientConfig())
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	loaded, err := Load(context.Background(), raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := Configuration(loaded, "patient")
	if err != nil {
		t.Fatalf("configuration: %v", err)
	}

	var names []string
	for _, field := range cfg.Fields {
		names = append(names, field.Name)
	}
	if diff := cmp.Diff([]string{"first_name", "blood_type", "weight", "allergies", "consent"}, names); diff != "" {
		t.Fatalf("unexpected field order (-want +got):\n%s", diff)
	}

	first := cfg.Fields[0]
	if first.ID != 1 || !first.IsCore || !first.IsRequired || first.Label() != "First name" || first.Category != "Personal" {
		t.Fatalf("unexpected first field: %+v", first)
	}
	if first.ValidationRules == nil || first.ValidationRules.MaxLength == nil || *first.ValidationRules.MaxLength != 5 {
		t.Fatalf("expected maxLength rule to survive")
	}
	if cfg.Fields[3].FieldType != model.FieldMultiSelect || len(cfg.Fields[3].Options) != 2 {
		t.Fatalf("unexpected allergies field: %+v", cfg.Fields[3])
	}

	if _, err := Configuration(loaded, "appointment"); !errors.Is(err, ErrFormTypeNotFound) {
		t.Fatalf("expected ErrFormTypeNotFound, got %v", err)
	}
}

func TestLoadRejectsEmptyPayload(t *testing.T) {
	if _, err := Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
