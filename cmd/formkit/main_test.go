package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const fieldsPayload = `{"fields":[
	{"field_id":1,"name":"first_name","display_name":"First Name","field_type":"text","is_enabled":true,"is_required":true,"is_core":true,"sort_order":1,"category":"personal"},
	{"field_id":2,"name":"email","display_name":"Email","field_type":"email","is_enabled":true,"sort_order":2,"category":"contact"},
	{"field_id":3,"name":"notes","display_name":"Notes","field_type":"textarea","is_enabled":false,"sort_order":3,"category":"other"}
]}`

type backend struct {
	mu     sync.Mutex
	writes []string
	bodies []string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/forms/types", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"patient","display_name":"Patient","is_active":true}]}`)
	})
	mux.HandleFunc("/api/forms/patient/fields", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, fieldsPayload)
	})
	mux.HandleFunc("/api/forms/patient/fields/", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.writes = append(b.writes, r.Method+" "+r.URL.Path)
		b.bodies = append(b.bodies, string(raw))
		b.mu.Unlock()
		_, _ = io.WriteString(w, `{}`)
	})
	return mux
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newBackend(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return b, srv.URL
}

func TestTypesCommandPrintsTable(t *testing.T) {
	_, url := newBackend(t)

	out, err := run(t, "", "--api-url", url, "types")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if !strings.Contains(out, "patient") || !strings.Contains(out, "Patient") {
		t.Fatalf("expected form type row, got %q", out)
	}
}

func TestFieldsCommandFiltersEnabledAsJSON(t *testing.T) {
	_, url := newBackend(t)

	out, err := run(t, "", "--api-url", url, "-o", "json", "fields", "patient", "--enabled")
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	var fields []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(out), &fields); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	got := make([]string, 0, len(fields))
	for _, f := range fields {
		got = append(got, f.Name)
	}
	if diff := cmp.Diff([]string{"first_name", "email"}, got); diff != "" {
		t.Fatalf("enabled fields mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateCommandReportsErrors(t *testing.T) {
	_, url := newBackend(t)

	out, err := run(t, "email: not-an-email\n", "--api-url", url, "validate", "patient", "--data", "-")
	if !errors.Is(err, errInvalidRecord) {
		t.Fatalf("expected errInvalidRecord, got %v", err)
	}
	if !strings.Contains(out, "first_name:") || !strings.Contains(out, "email:") {
		t.Fatalf("expected errors for first_name and email, got %q", out)
	}
}

func TestValidateCommandAcceptsValidFile(t *testing.T) {
	_, url := newBackend(t)
	path := filepath.Join(t.TempDir(), "patient.json")
	if err := os.WriteFile(path, []byte(`{"first_name":"Ana","email":"ana@example.com"}`), 0o600); err != nil {
		t.Fatalf("write record: %v", err)
	}

	out, err := run(t, "", "--api-url", url, "-o", "json", "validate", "patient", "--data", path)
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	var report struct {
		Valid bool `json:"valid"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected valid report, got %s", out)
	}
}

func TestSchemaCommandWritesOpenAPI(t *testing.T) {
	_, url := newBackend(t)

	out, err := run(t, "", "--api-url", url, "schema", "patient")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("expected JSON document: %v", err)
	}
	if _, ok := doc["openapi"]; !ok {
		t.Fatalf("expected openapi key, got %v", doc)
	}
}

func TestFieldDisableSendsPatch(t *testing.T) {
	b, url := newBackend(t)

	if _, err := run(t, "", "--api-url", url, "field", "disable", "patient", "2"); err != nil {
		t.Fatalf("field disable: %v", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if diff := cmp.Diff([]string{"PUT /api/forms/patient/fields/2"}, b.writes); diff != "" {
		t.Fatalf("writes mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(b.bodies[0], `"is_enabled":false`) {
		t.Fatalf("expected is_enabled=false in body, got %s", b.bodies[0])
	}
}

func TestFieldDisableRejectsCoreField(t *testing.T) {
	b, url := newBackend(t)

	if _, err := run(t, "", "--api-url", url, "field", "disable", "patient", "1"); err == nil {
		t.Fatalf("expected error disabling a core field")
	}
	if len(b.writes) != 0 {
		t.Fatalf("expected no remote writes, got %v", b.writes)
	}
}

func TestOrderCommandReadsYAML(t *testing.T) {
	b, url := newBackend(t)
	order := "- field_id: 2\n  sort_order: 1\n- field_id: 1\n  sort_order: 2\n"

	out, err := run(t, order, "--api-url", url, "-o", "json", "order", "patient")
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if len(b.writes) != 1 || b.writes[0] != "PUT /api/forms/patient/fields/order" {
		t.Fatalf("expected order write, got %v", b.writes)
	}
	var cfg struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(cfg.Fields) == 0 || cfg.Fields[0].Name != "email" {
		t.Fatalf("expected email first after reorder, got %s", out)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	_, url := newBackend(t)

	if _, err := run(t, "", "--api-url", url, "-o", "xml", "types"); err == nil {
		t.Fatalf("expected error for unknown output format")
	}
}

func TestOptionListSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blood.txt")
	if err := os.WriteFile(path, []byte("A+|A positive\n"), 0o600); err != nil {
		t.Fatalf("write list: %v", err)
	}
	if _, err := optionList("blood_types=" + path); err != nil {
		t.Fatalf("expected list to load, got %v", err)
	}
	for _, spec := range []string{"blood_types", "=x", "blood_types=" + filepath.Join(t.TempDir(), "nope.txt")} {
		if _, err := optionList(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}
