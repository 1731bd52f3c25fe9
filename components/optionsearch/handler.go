package optionsearch

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/goliatone/go-formkit/pkg/model"
)

// HTTPError lets guard and source errors pick the response status.
type HTTPError interface {
	error
	StatusCode() int
}

// StatusError pairs an error with an HTTP status.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Handler answers option queries with {"data": [...]}. Errors are written as
// {"error": "..."}.
type Handler struct {
	cfg Config
}

// NewHandler builds a handler from opts.
func NewHandler(opts ...Option) *Handler {
	return &Handler{cfg: NewConfig(opts...)}
}

// Config returns the effective settings.
func (h *Handler) Config() Config { return h.cfg }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodHead)
		writeJSON(w, r, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
		return
	}
	if h.cfg.Guard != nil {
		if err := h.cfg.Guard(r); err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}
	}

	items := h.cfg.Items
	if h.cfg.Source != nil {
		loaded, err := h.cfg.Source(r)
		if err != nil {
			writeError(w, r, err, http.StatusBadGateway)
			return
		}
		items = loaded
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get(h.cfg.LimitParam))
	results := Search(items, query.Get(h.cfg.SearchParam), limit, h.cfg)
	if results == nil {
		results = []model.Option{}
	}
	writeJSON(w, r, http.StatusOK, dataBody{Data: results})
}

type dataBody struct {
	Data []model.Option `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError uses the status of an HTTPError, or fallback. Only HTTPError
// messages are exposed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	code, msg := fallback, http.StatusText(fallback)
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		code, msg = httpErr.StatusCode(), httpErr.Error()
	}
	writeJSON(w, r, code, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
