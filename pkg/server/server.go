// Package server exposes the form configuration store, the validation engine
// and the location lookups over a small local HTTP gateway built on echo.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/components/optionsearch"
	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/fieldtypes"
	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/location"
	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 10 * time.Second

// Option configures a Server.
type Option func(*Server)

// WithLocations enables the /options routes.
func WithLocations(service location.Service) Option {
	return func(s *Server) {
		s.locations = service
	}
}

// WithEntity sets the entity context used for nationality options and
// record defaults.
func WithEntity(ent *entity.Context) Option {
	return func(s *Server) {
		s.entity = ent
	}
}

// WithRegistry replaces the default field-type registry used for props.
func WithRegistry(registry *fieldtypes.Registry) Option {
	return func(s *Server) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records validation failures through m.
func WithMetrics(m *metrics.Collectors) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithOptionList serves a static option list at GET /options/<name>.
func WithOptionList(name string, items []model.Option) Option {
	return func(s *Server) {
		name = strings.Trim(strings.TrimSpace(name), "/")
		if name == "" {
			return
		}
		if s.lists == nil {
			s.lists = map[string][]model.Option{}
		}
		s.lists[name] = items
	}
}

// WithMetricsHandler serves h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// Server is the local gateway.
type Server struct {
	echo           *echo.Echo
	store          *formconfig.Store
	locations      location.Service
	entity         *entity.Context
	registry       *fieldtypes.Registry
	logger         zerolog.Logger
	metrics        *metrics.Collectors
	metricsHandler http.Handler
	lists          map[string][]model.Option
}

// New builds a Server around store.
func New(store *formconfig.Store, opts ...Option) *Server {
	s := &Server{
		store:    store,
		registry: fieldtypes.Default(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Recovery(s.logger))
	e.Use(RequestID())
	e.Use(Logger(s.logger))
	s.echo = e
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}

	forms := e.Group("/forms")
	forms.GET("", s.formTypes)
	forms.GET("/:type/fields", s.fields)
	forms.GET("/:type/props", s.props)
	forms.POST("/:type/validate", s.validate)
	forms.GET("/:type/schema", s.schema)

	if s.locations != nil {
		options := e.Group("/options")
		options.GET("/countries", echo.WrapHandler(optionsearch.NewHandler(
			optionsearch.WithSource(s.countryOptions),
		)))
		options.GET("/states", echo.WrapHandler(optionsearch.NewHandler(
			optionsearch.WithSource(s.stateOptions),
		)))
		options.GET("/cities", echo.WrapHandler(optionsearch.NewHandler(
			optionsearch.WithSource(s.cityOptions),
		)))
	}
	for name, items := range s.lists {
		e.GET("/options/"+name, echo.WrapHandler(optionsearch.NewHandler(
			optionsearch.WithItems(items),
		)))
	}
	if s.entity != nil {
		e.GET("/options/nationalities", echo.WrapHandler(optionsearch.NewHandler(
			optionsearch.WithItems(s.entity.NationalityOptions()),
		)))
	}
}

// Handler returns the HTTP handler for embedding or tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("formkit gateway listening")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
