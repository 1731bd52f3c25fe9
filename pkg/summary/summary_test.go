package summary

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func sampleConfig() model.FormConfiguration {
	return model.FormConfiguration{
		FormType: "patient",
		Fields: []model.FieldDescriptor{
			{Name: "first_name", DisplayName: "First Name", FieldType: model.FieldText, Category: "personal", IsEnabled: true, IsRequired: true, SortOrder: 1},
			{Name: "gender", FieldType: model.FieldSelect, Category: "personal", IsEnabled: true, SortOrder: 2,
				Options: []model.Option{{Value: "f", Label: "Female"}, {Value: "m", Label: "Male"}}},
			{Name: "notes", DisplayName: "Notes", FieldType: model.FieldTextArea, Category: "extra", IsEnabled: true, SortOrder: 3},
			{Name: "secret", FieldType: model.FieldPassword, Category: "extra", IsEnabled: true, SortOrder: 4},
			{Name: "legacy", FieldType: model.FieldText, Category: "extra", IsEnabled: false, SortOrder: 5},
		},
	}
}

func TestBuildGroupsEnabledFields(t *testing.T) {
	record := model.Record{
		"first_name": model.String("<Ana>"),
		"gender":     model.String("f"),
		"secret":     model.String("hunter2"),
	}
	errs := validation.FieldErrors{"notes": {validation.MsgRequired}}

	s := Build("", sampleConfig(), record, errs)
	if s.Title != "patient" {
		t.Fatalf("expected title to default to form type, got %q", s.Title)
	}
	if len(s.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(s.Categories))
	}
	personal := s.Categories[0]
	if personal.Name != "personal" || len(personal.Fields) != 2 {
		t.Fatalf("unexpected personal category: %+v", personal)
	}
	if personal.Fields[1].Value != "Female" {
		t.Fatalf("expected option label, got %q", personal.Fields[1].Value)
	}
	extra := s.Categories[1]
	if len(extra.Fields) != 2 {
		t.Fatalf("expected disabled field to be skipped, got %+v", extra.Fields)
	}
	if extra.Fields[1].Value != "********" {
		t.Fatalf("expected masked password, got %q", extra.Fields[1].Value)
	}
	if s.ErrorCount != 1 {
		t.Fatalf("expected 1 field with errors, got %d", s.ErrorCount)
	}
}

func TestRenderDefaultTemplate(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	record := model.Record{"first_name": model.String("<Ana>")}
	errs := validation.FieldErrors{"notes": {"Too short"}}

	var buf bytes.Buffer
	if err := r.Render(&buf, "", Build("Patient intake", sampleConfig(), record, errs)); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Patient intake (patient)",
		"[personal]",
		"First Name *: <Ana>",
		"Notes: -",
		"! Too short",
		"1 field(s) need attention.",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderPrefersCustomTemplates(t *testing.T) {
	files := fstest.MapFS{
		"summary.tpl": {Data: []byte("custom {{ summary.FormType }}")},
	}
	r, err := New(WithFS(files))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, "", Build("", sampleConfig(), nil, nil)); err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := buf.String(); got != "custom patient" {
		t.Fatalf("expected custom template output, got %q", got)
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	if err := r.Render(&bytes.Buffer{}, "missing.tpl", Summary{}); err == nil {
		t.Fatalf("expected error for missing template")
	}
}

func TestRenderString(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	out, err := r.RenderString("{{ summary.Categories|length }}", Build("", sampleConfig(), nil, nil))
	if err != nil {
		t.Fatalf("render string: %v", err)
	}
	if out != "2" {
		t.Fatalf("expected 2, got %q", out)
	}
}

func TestWriteYAML(t *testing.T) {
	record := model.Record{"first_name": model.String("Ana")}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, Build("", sampleConfig(), record, nil)); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	var decoded Summary
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded.FormType != "patient" || len(decoded.Categories) != 2 {
		t.Fatalf("unexpected decoded summary: %+v", decoded)
	}
	if decoded.Categories[0].Fields[0].Value != "Ana" {
		t.Fatalf("expected first name value, got %+v", decoded.Categories[0].Fields[0])
	}
	if strings.Contains(buf.String(), "error_count") {
		t.Fatalf("expected zero error count to be omitted:\n%s", buf.String())
	}
}
