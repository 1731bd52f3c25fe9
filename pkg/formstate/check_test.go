package formstate

import (
	"testing"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func TestValidateRecordConvertsAndValidates(t *testing.T) {
	cfg := model.FormConfiguration{
		FormType: "patient",
		Fields: []model.FieldDescriptor{
			{Name: "first_name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true},
			{Name: "weight", FieldType: model.FieldNumber, IsEnabled: true},
			{Name: "legacy", FieldType: model.FieldText, IsEnabled: false, IsRequired: true},
		},
	}
	input := model.Record{
		"first_name": model.String("<b>Ana</b>"),
		"weight":     model.String("72.5"),
		"unknown":    model.String("dropped"),
	}

	data, errs := ValidateRecord(cfg, input, nil)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if got := data["first_name"]; !got.Equal(model.String("Ana")) {
		t.Fatalf("expected sanitized first name, got %v", got)
	}
	if n, ok := data["weight"].Float(); !ok || n != 72.5 {
		t.Fatalf("expected weight 72.5, got %v", data["weight"])
	}
	if data.Has("legacy") || data.Has("unknown") {
		t.Fatalf("expected only enabled fields in data, got %v", data.Keys())
	}
	if got := input["weight"]; !got.Equal(model.String("72.5")) {
		t.Fatalf("expected input to be left untouched, got %v", got)
	}
}

func TestValidateRecordRunsCheckerAfterRules(t *testing.T) {
	cfg := model.FormConfiguration{
		FormType: "patient",
		Fields:   patientFields(),
	}

	_, errs := ValidateRecord(cfg, nil, nil, WithSchemaCheck(rejectAll{}))
	if got := errs["first_name"]; len(got) != 1 || got[0] != validation.MsgRequired {
		t.Fatalf("expected field rules to win, got %v", errs)
	}

	_, errs = ValidateRecord(cfg, model.Record{"first_name": model.String("Ana")}, nil, WithSchemaCheck(rejectAll{}))
	if got := errs["first_name"]; len(got) != 1 || got[0] != "schema says no" {
		t.Fatalf("expected checker errors, got %v", errs)
	}
}
