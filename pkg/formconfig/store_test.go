package formconfig

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/cache"
	"github.com/goliatone/go-formkit/pkg/model"
)

type fakeService struct {
	mu         sync.Mutex
	fields     map[string][]model.FieldDescriptor
	fieldCalls int
	calls      []string
	failNext   error
}

func (f *fakeService) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakeService) FormTypes(context.Context) ([]model.FormType, error) {
	if err := f.record("types"); err != nil {
		return nil, err
	}
	return []model.FormType{{ID: 1, Name: "patient"}, {ID: 2, Name: "appointment"}}, nil
}

func (f *fakeService) FormFields(_ context.Context, formType string) ([]model.FieldDescriptor, error) {
	if err := f.record("fields:" + formType); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldCalls++
	return append([]model.FieldDescriptor(nil), f.fields[formType]...), nil
}

func (f *fakeService) FormMetadata(_ context.Context, formType string) (model.FormMetadata, error) {
	if err := f.record("metadata:" + formType); err != nil {
		return model.FormMetadata{}, err
	}
	return model.FormMetadata{FormType: formType, DisplayName: "Patient"}, nil
}

func (f *fakeService) UpdateFormField(context.Context, string, int, model.FieldPatch) error {
	return f.record("update_field")
}

func (f *fakeService) UpdateFormFields(context.Context, string, []model.FieldPatch) error {
	return f.record("update_fields")
}

func (f *fakeService) UpdateFieldOrder(context.Context, string, []model.FieldOrder) error {
	return f.record("update_order")
}

func (f *fakeService) ResetFormToDefaults(context.Context, string) error {
	return f.record("reset")
}

func patientFields() []model.FieldDescriptor {
	return []model.FieldDescriptor{
		{ID: 1, Name: "first_name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true, IsCore: true, Category: "Personal", SortOrder: 2},
		{ID: 2, Name: "email", FieldType: model.FieldEmail, IsEnabled: true, Category: "Contact", SortOrder: 1},
		{ID: 3, Name: "blood_type", FieldType: model.FieldSelect, IsEnabled: false, IsRequired: true, Category: "Medical", SortOrder: 3},
		{ID: 4, Name: "last_name", FieldType: model.FieldText, IsEnabled: true, IsRequired: true, IsCore: true, Category: "Personal", SortOrder: 1},
		{ID: 5, Name: "notes", FieldType: model.FieldTextArea, IsEnabled: true, SortOrder: 9},
	}
}

func newStore(t *testing.T) (*Store, *fakeService) {
	t.Helper()
	svc := &fakeService{fields: map[string][]model.FieldDescriptor{"patient": patientFields()}}
	return New(svc), svc
}

func names(fields []model.FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}

func TestLoadFieldsIsIdempotent(t *testing.T) {
	store, svc := newStore(t)
	ctx := context.Background()

	if _, err := store.LoadFields(ctx, "patient", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := store.LoadFields(ctx, "patient", false); err != nil {
		t.Fatalf("load: %v", err)
	}
	if svc.fieldCalls != 1 {
		t.Fatalf("expected 1 remote call, got %d", svc.fieldCalls)
	}
	if _, err := store.LoadFields(ctx, "patient", true); err != nil {
		t.Fatalf("forced load: %v", err)
	}
	if svc.fieldCalls != 2 {
		t.Fatalf("expected 2 remote calls after force, got %d", svc.fieldCalls)
	}
}

func TestLoadFieldsRefetchesEmptyConfiguration(t *testing.T) {
	svc := &fakeService{fields: map[string][]model.FieldDescriptor{}}
	store := New(svc)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)
	_, _ = store.LoadFields(ctx, "patient", false)
	if svc.fieldCalls != 2 {
		t.Fatalf("expected empty configuration to be refetched, got %d calls", svc.fieldCalls)
	}
}

func TestLoadFieldsHonoursCacheTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := &fakeService{fields: map[string][]model.FieldDescriptor{"patient": patientFields()}}
	store := New(svc, WithCache(cache.NewMemory[model.FormConfiguration](
		cache.WithTTL(time.Hour),
		cache.WithClock(func() time.Time { return now }),
	)))
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)
	now = now.Add(2 * time.Hour)
	_, _ = store.LoadFields(ctx, "patient", false)
	if svc.fieldCalls != 2 {
		t.Fatalf("expected expired entry to be refetched, got %d calls", svc.fieldCalls)
	}
}

func TestLoadFieldsFailureRecordsError(t *testing.T) {
	store, svc := newStore(t)
	ctx := context.Background()
	svc.failNext = errors.New("HTTP 500 Error")
	if _, err := store.LoadFields(ctx, "patient", false); err == nil {
		t.Fatalf("expected error")
	}
	if store.Err() == nil {
		t.Fatalf("expected store error to be recorded")
	}
	if fields := store.Fields(ctx, "patient"); fields != nil {
		t.Fatalf("expected nothing cached, got %v", names(fields))
	}
	store.ClearError()
	if store.Err() != nil {
		t.Fatalf("expected error to be cleared")
	}
}

func TestProjections(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	if _, err := store.LoadFields(ctx, "patient", false); err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff([]string{"first_name", "email", "last_name", "notes"}, names(store.EnabledFields(ctx, "patient"))); diff != "" {
		t.Fatalf("enabled mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first_name", "last_name"}, names(store.RequiredFields(ctx, "patient"))); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first_name", "last_name"}, names(store.CoreFields(ctx, "patient"))); diff != "" {
		t.Fatalf("core mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"email", "blood_type", "notes"}, names(store.ConfigurableFields(ctx, "patient"))); diff != "" {
		t.Fatalf("configurable mismatch (-want +got):\n%s", diff)
	}

	groups := store.FieldsByCategory(ctx, "patient")
	got := map[string][]string{}
	var order []string
	for _, g := range groups {
		order = append(order, g.Name)
		got[g.Name] = names(g.Fields)
	}
	want := map[string][]string{
		"Personal": {"last_name", "first_name"},
		"Contact":  {"email"},
		"Other":    {"notes"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Personal", "Contact", "Other"}, order); diff != "" {
		t.Fatalf("category order mismatch (-want +got):\n%s", diff)
	}
}

func TestByCategoryExcludesDisabled(t *testing.T) {
	groups := CategoryMap([]model.FieldDescriptor{
		{Name: "a", IsEnabled: true, Category: "A"},
		{Name: "b", IsEnabled: false, Category: "B"},
	})
	if len(groups["A"]) != 1 {
		t.Fatalf("expected one field in A, got %v", groups["A"])
	}
	if _, ok := groups["B"]; ok {
		t.Fatalf("expected disabled category to be absent")
	}
}

func TestByCategoryStableTies(t *testing.T) {
	groups := ByCategory([]model.FieldDescriptor{
		{Name: "x", IsEnabled: true, SortOrder: 1},
		{Name: "y", IsEnabled: true, SortOrder: 0},
		{Name: "z", IsEnabled: true, SortOrder: 1},
	})
	if diff := cmp.Diff([]string{"y", "x", "z"}, names(groups[0].Fields)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateFieldPatchesCacheAndMarksDirty(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)

	err := store.UpdateField(ctx, "patient", 2, model.FieldPatch{IsRequired: model.BoolPtr(true), CustomLabel: model.StringPtr("E-mail")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	field, _ := store.Field(ctx, "patient", "email")
	if !field.IsRequired || field.Label() != "E-mail" {
		t.Fatalf("expected patched field, got %#v", field)
	}
	if !store.Dirty() {
		t.Fatalf("expected dirty after mutation")
	}
	store.MarkClean()
	if store.Dirty() {
		t.Fatalf("expected clean after MarkClean")
	}
}

func TestFailedMutationLeavesCacheUnchanged(t *testing.T) {
	store, svc := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)
	before := store.Fields(ctx, "patient")

	svc.failNext = errors.New("HTTP 500 Error")
	if err := store.UpdateFields(ctx, "patient", []model.FieldPatch{{FieldID: 2, IsEnabled: model.BoolPtr(false)}}); err == nil {
		t.Fatalf("expected error")
	}
	if diff := cmp.Diff(before, store.Fields(ctx, "patient")); diff != "" {
		t.Fatalf("cache changed after failure (-before +after):\n%s", diff)
	}
	if store.Dirty() {
		t.Fatalf("expected failed mutation not to mark dirty")
	}
	if store.Err() == nil {
		t.Fatalf("expected recorded error")
	}
}

func TestCoreFieldCannotBeDisabled(t *testing.T) {
	store, svc := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)

	if err := store.UpdateField(ctx, "patient", 1, model.FieldPatch{IsEnabled: model.BoolPtr(false)}); !errors.Is(err, ErrCoreField) {
		t.Fatalf("expected ErrCoreField, got %v", err)
	}
	if err := store.ToggleFieldEnabled(ctx, "patient", 1); !errors.Is(err, ErrCoreField) {
		t.Fatalf("expected ErrCoreField from toggle, got %v", err)
	}
	for _, call := range svc.calls {
		if call == "update_field" {
			t.Fatalf("expected no remote update, got calls %v", svc.calls)
		}
	}
}

func TestToggles(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)

	if err := store.ToggleFieldRequired(ctx, "patient", 3); !errors.Is(err, ErrFieldDisabled) {
		t.Fatalf("expected ErrFieldDisabled, got %v", err)
	}
	if err := store.ToggleFieldEnabled(ctx, "patient", 3); err != nil {
		t.Fatalf("toggle enabled: %v", err)
	}
	if err := store.ToggleFieldRequired(ctx, "patient", 3); err != nil {
		t.Fatalf("toggle required: %v", err)
	}
	field, _ := store.Field(ctx, "patient", "blood_type")
	if !field.IsEnabled || field.IsRequired {
		t.Fatalf("unexpected toggled state %#v", field)
	}
	if err := store.ToggleFieldEnabled(ctx, "patient", 99); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
	if err := store.ToggleFieldEnabled(ctx, "appointment", 1); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestUpdateFieldOrderResorts(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)

	orders := []model.FieldOrder{
		{FieldID: 5, SortOrder: 0},
		{FieldID: 1, SortOrder: 1},
		{FieldID: 4, SortOrder: 2},
		{FieldID: 2, SortOrder: 3},
		{FieldID: 3, SortOrder: 4},
	}
	if err := store.UpdateFieldOrder(ctx, "patient", orders); err != nil {
		t.Fatalf("order: %v", err)
	}
	want := []string{"notes", "first_name", "last_name", "email", "blood_type"}
	if diff := cmp.Diff(want, names(store.Fields(ctx, "patient"))); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestResetToDefaultsReloadsAndCleans(t *testing.T) {
	store, svc := newStore(t)
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)
	_ = store.UpdateField(ctx, "patient", 2, model.FieldPatch{IsRequired: model.BoolPtr(true)})

	cfg, err := store.ResetToDefaults(ctx, "patient")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if store.Dirty() {
		t.Fatalf("expected clean after reset")
	}
	if field, _ := cfg.Field("email"); field.IsRequired {
		t.Fatalf("expected reloaded defaults, got %#v", field)
	}
	if svc.fieldCalls != 2 {
		t.Fatalf("expected reload after reset, got %d field calls", svc.fieldCalls)
	}
}

func TestClearCache(t *testing.T) {
	store, svc := newStore(t)
	svc.fields["appointment"] = []model.FieldDescriptor{{ID: 10, Name: "reason", IsEnabled: true}}
	ctx := context.Background()
	_, _ = store.LoadFields(ctx, "patient", false)
	_, _ = store.LoadFields(ctx, "appointment", false)

	if err := store.ClearCache(ctx, "patient"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Fields(ctx, "patient") != nil || store.Fields(ctx, "appointment") == nil {
		t.Fatalf("expected only patient to be cleared")
	}
	if err := store.ClearCache(ctx, ""); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if store.Fields(ctx, "appointment") != nil {
		t.Fatalf("expected all form types to be cleared")
	}
}

func TestLoadFormTypesAndMetadata(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	types, err := store.LoadFormTypes(ctx)
	if err != nil || len(types) != 2 {
		t.Fatalf("expected 2 form types, got %v (%v)", types, err)
	}
	if len(store.FormTypes()) != 2 {
		t.Fatalf("expected cached form types")
	}
	if _, err := store.LoadMetadata(ctx, "patient"); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta, ok := store.Metadata("patient"); !ok || meta.DisplayName != "Patient" {
		t.Fatalf("unexpected metadata %#v", meta)
	}
	if _, err := store.LoadFields(ctx, " ", false); !errors.Is(err, ErrFormTypeRequired) {
		t.Fatalf("expected ErrFormTypeRequired, got %v", err)
	}
}
