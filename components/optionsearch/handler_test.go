package optionsearch

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-formkit/pkg/model"
)

type handlerResponse struct {
	Data []model.Option `json:"data"`
}

var countries = []model.Option{
	{Value: "AR", Label: "Argentina"},
	{Value: "CO", Label: "Colombia"},
	{Value: "MX", Label: "Mexico"},
	{Value: "US", Label: "United States"},
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) handlerResponse {
	t.Helper()
	var payload handlerResponse
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestNewHandler_EmptyQueryReturnsTopItems(t *testing.T) {
	h := NewHandler(WithItems(countries), WithDefaultLimit(2))

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := strings.TrimSpace(rec.Header().Get("Content-Type")); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected JSON content-type, got %q", ct)
	}
	payload := decode(t, rec)
	if len(payload.Data) != 2 || payload.Data[0].Value != "AR" {
		t.Fatalf("unexpected payload: %#v", payload.Data)
	}
}

func TestNewHandler_EmptySearchNone(t *testing.T) {
	h := NewHandler(WithItems(countries), WithEmptySearch(EmptySearchNone))

	req := httptest.NewRequest(http.MethodGet, "/api/options", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	payload := decode(t, rec)
	if payload.Data == nil || len(payload.Data) != 0 {
		t.Fatalf("expected empty data array, got %#v", payload.Data)
	}
}

func TestNewHandler_SearchAndLimitClamped(t *testing.T) {
	h := NewHandler(WithItems(countries), WithMaxLimit(1))

	req := httptest.NewRequest(http.MethodGet, "/api/options?q=co&limit=10", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	payload := decode(t, rec)
	if len(payload.Data) != 1 || payload.Data[0].Value != "CO" {
		t.Fatalf("unexpected payload: %#v", payload.Data)
	}
}

func TestNewHandler_SourcePerRequest(t *testing.T) {
	var seen string
	h := NewHandler(WithSource(func(r *http.Request) ([]model.Option, error) {
		seen = r.URL.Query().Get("country")
		return []model.Option{{Value: "ANT", Label: "Antioquia"}}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/options?country=CO&q=ant", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "CO" {
		t.Fatalf("expected source to see country CO, got %q", seen)
	}
	payload := decode(t, rec)
	if len(payload.Data) != 1 || payload.Data[0].Label != "Antioquia" {
		t.Fatalf("unexpected payload: %#v", payload.Data)
	}
}

func TestNewHandler_SourceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain", err: errors.New("boom"), want: http.StatusBadGateway},
		{name: "status", err: StatusError{Code: http.StatusBadRequest}, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHandler(WithSource(func(*http.Request) ([]model.Option, error) {
				return nil, tc.err
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))
			if rec.Code != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestNewHandler_StatusErrorMessageInBody(t *testing.T) {
	h := NewHandler(WithSource(func(*http.Request) ([]model.Option, error) {
		return nil, StatusError{Code: http.StatusBadRequest, Err: errors.New("country is required")}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body.Error != "country is required" {
		t.Fatalf("expected source message, got %q", body.Error)
	}
}

func TestNewHandler_PlainErrorsStayPrivate(t *testing.T) {
	h := NewHandler(WithSource(func(*http.Request) ([]model.Option, error) {
		return nil, errors.New("dial tcp 10.0.0.1:443: refused")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))

	if strings.Contains(rec.Body.String(), "10.0.0.1") {
		t.Fatalf("expected upstream detail hidden, got %s", rec.Body.String())
	}
}

func TestNewHandler_GuardRejects(t *testing.T) {
	h := NewHandler(
		WithItems(countries),
		WithGuard(func(r *http.Request) error {
			return StatusError{Code: http.StatusUnauthorized}
		}),
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options?q=co", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestNewHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(WithItems(countries))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/options", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Fatalf("unexpected Allow header: %q", allow)
	}
}

func TestNewHandler_HeadHasNoBody(t *testing.T) {
	h := NewHandler(WithItems(countries))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/api/options", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
