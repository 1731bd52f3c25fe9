package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/goliatone/go-formkit/components/optionsearch"
	"github.com/goliatone/go-formkit/pkg/client"
	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/validation"
)

type envelope struct {
	Data any `json:"data"`
}

// ValidationResponse is the body of POST /forms/:type/validate.
type ValidationResponse struct {
	Valid  bool                   `json:"valid"`
	Errors validation.FieldErrors `json:"errors"`
	Data   model.Record           `json:"data"`
}

func (s *Server) formTypes(c echo.Context) error {
	types, err := s.store.LoadFormTypes(c.Request().Context())
	if err != nil {
		return s.remoteError(err)
	}
	return c.JSON(http.StatusOK, envelope{Data: types})
}

func (s *Server) config(c echo.Context) (model.FormConfiguration, error) {
	formType := strings.TrimSpace(c.Param("type"))
	reload, _ := strconv.ParseBool(c.QueryParam("reload"))
	cfg, err := s.store.LoadFields(c.Request().Context(), formType, reload)
	if err != nil {
		return model.FormConfiguration{}, s.remoteError(err)
	}
	return cfg, nil
}

func (s *Server) fields(c echo.Context) error {
	cfg, err := s.config(c)
	if err != nil {
		return err
	}
	fields := cfg.Fields
	if enabled, _ := strconv.ParseBool(c.QueryParam("enabled")); enabled {
		fields = formconfig.Enabled(fields)
	}
	if c.QueryParam("group") == "category" {
		return c.JSON(http.StatusOK, envelope{Data: formconfig.ByCategory(fields)})
	}
	if fields == nil {
		fields = []model.FieldDescriptor{}
	}
	return c.JSON(http.StatusOK, envelope{Data: fields})
}

func (s *Server) props(c echo.Context) error {
	cfg, err := s.config(c)
	if err != nil {
		return err
	}
	out := make([]map[string]any, 0, len(cfg.Fields))
	for _, field := range formconfig.Enabled(cfg.Fields) {
		out = append(out, s.registry.BuildFieldProps(field))
	}
	return c.JSON(http.StatusOK, envelope{Data: out})
}

func (s *Server) validate(c echo.Context) error {
	cfg, err := s.config(c)
	if err != nil {
		return err
	}

	var input model.Record
	if err := json.NewDecoder(c.Request().Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record payload").SetInternal(err)
	}

	data, errs := formstate.ValidateRecord(cfg, input, s.entity,
		formstate.WithSchemaCheck(schema.NewValidator(cfg)),
		formstate.WithLogger(s.logger),
		formstate.WithMetrics(s.metrics),
	)
	resp := ValidationResponse{Valid: len(errs) == 0, Errors: errs, Data: data}
	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, resp)
}

func (s *Server) schema(c echo.Context) error {
	cfg, err := s.config(c)
	if err != nil {
		return err
	}
	title := cfg.FormType
	if meta, ok := s.store.Metadata(cfg.FormType); ok && strings.TrimSpace(meta.DisplayName) != "" {
		title = meta.DisplayName
	}
	doc, err := schema.Document(c.Request().Context(), title, "1.0.0", cfg)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (s *Server) countryOptions(r *http.Request) ([]model.Option, error) {
	countries, err := s.locations.Countries(r.Context())
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]model.Option, 0, len(countries))
	for _, country := range countries {
		out = append(out, country.Option())
	}
	return out, nil
}

func (s *Server) stateOptions(r *http.Request) ([]model.Option, error) {
	country := strings.TrimSpace(r.URL.Query().Get("country"))
	if country == "" {
		return nil, optionsearch.StatusError{Code: http.StatusBadRequest, Err: errors.New("country is required")}
	}
	states, err := s.locations.States(r.Context(), country)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]model.Option, 0, len(states))
	for _, state := range states {
		out = append(out, state.Option())
	}
	return out, nil
}

func (s *Server) cityOptions(r *http.Request) ([]model.Option, error) {
	query := r.URL.Query()
	country := strings.TrimSpace(query.Get("country"))
	if country == "" {
		return nil, optionsearch.StatusError{Code: http.StatusBadRequest, Err: errors.New("country is required")}
	}
	cities, err := s.locations.Cities(r.Context(), country, strings.TrimSpace(query.Get("state")))
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]model.Option, 0, len(cities))
	for _, city := range cities {
		out = append(out, city.Option())
	}
	return out, nil
}

// remoteError maps store and client failures onto HTTP errors.
func (s *Server) remoteError(err error) error {
	switch {
	case errors.Is(err, formconfig.ErrFormTypeRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, formconfig.ErrFieldNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	var remote *client.Error
	if errors.As(err, &remote) && remote.Status > 0 {
		return echo.NewHTTPError(remote.Status, remote.Message).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusBadGateway, err.Error()).SetInternal(err)
}

func upstream(err error) error {
	var remote *client.Error
	if errors.As(err, &remote) && remote.Status > 0 {
		return optionsearch.StatusError{Code: remote.Status, Err: err}
	}
	return optionsearch.StatusError{Code: http.StatusBadGateway, Err: err}
}
