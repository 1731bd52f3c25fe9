// Package formkit wires the form configuration store, the location cascade,
// the entity context and the form state controller to the remote healthcare
// services behind one constructor.
package formkit

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/cache"
	"github.com/goliatone/go-formkit/pkg/client"
	"github.com/goliatone/go-formkit/pkg/entity"
	"github.com/goliatone/go-formkit/pkg/formconfig"
	"github.com/goliatone/go-formkit/pkg/formstate"
	"github.com/goliatone/go-formkit/pkg/location"
	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/summary"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Record aliases model.Record for callers that only import the root package.
type Record = model.Record

// Value aliases model.Value.
type Value = model.Value

// FieldDescriptor aliases model.FieldDescriptor.
type FieldDescriptor = model.FieldDescriptor

// FormConfiguration aliases model.FormConfiguration.
type FormConfiguration = model.FormConfiguration

// FieldErrors aliases validation.FieldErrors.
type FieldErrors = validation.FieldErrors

// Option configures a Kit.
type Option func(*settings)

type settings struct {
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     zerolog.Logger
	metrics    *metrics.Collectors
	cache      cache.Cache[model.FormConfiguration]
	debounce   time.Duration
	scheduler  location.Scheduler
}

// WithToken authenticates remote calls.
func WithToken(token string) Option {
	return func(s *settings) { s.token = token }
}

// WithTimeout bounds each remote call.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithHTTPClient replaces the HTTP client used for remote calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithMetrics shares one set of collectors between components.
func WithMetrics(m *metrics.Collectors) Option {
	return func(s *settings) { s.metrics = m }
}

// WithConfigCache replaces the in-memory configuration cache.
func WithConfigCache(c cache.Cache[model.FormConfiguration]) Option {
	return func(s *settings) { s.cache = c }
}

// WithDebounce sets the location cascade debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithScheduler replaces the location cascade timer source.
func WithScheduler(sched location.Scheduler) Option {
	return func(s *settings) { s.scheduler = sched }
}

// Kit bundles the components of one client session.
type Kit struct {
	Client    *client.Client
	Forms     *formconfig.Store
	Locations *location.Resolver
	Entities  *entity.Provider

	logger  zerolog.Logger
	metrics *metrics.Collectors
}

// New connects a Kit to the services under baseURL.
func New(baseURL string, opts ...Option) (*Kit, error) {
	s := &settings{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	clientOpts := []client.Option{client.WithLogger(s.logger), client.WithToken(s.token)}
	if s.timeout > 0 {
		clientOpts = append(clientOpts, client.WithTimeout(s.timeout))
	}
	if s.httpClient != nil {
		clientOpts = append(clientOpts, client.WithHTTPClient(s.httpClient))
	}
	c, err := client.New(baseURL, clientOpts...)
	if err != nil {
		return nil, err
	}

	storeOpts := []formconfig.Option{formconfig.WithLogger(s.logger), formconfig.WithMetrics(s.metrics)}
	if s.cache != nil {
		storeOpts = append(storeOpts, formconfig.WithCache(s.cache))
	}

	resolverOpts := []location.Option{location.WithLogger(s.logger), location.WithMetrics(s.metrics)}
	if s.debounce > 0 {
		resolverOpts = append(resolverOpts, location.WithDebounce(s.debounce))
	}
	if s.scheduler != nil {
		resolverOpts = append(resolverOpts, location.WithScheduler(s.scheduler))
	}

	return &Kit{
		Client:    c,
		Forms:     formconfig.New(c.Forms(), storeOpts...),
		Locations: location.New(c.Locations(), resolverOpts...),
		Entities:  entity.NewProvider(c.Entities(), entity.WithLogger(s.logger)),
		logger:    s.logger,
		metrics:   s.metrics,
	}, nil
}

// Controller returns a form state controller that submits to resource and
// feeds the location cascade. The records are checked against the OpenAPI
// schema of cfg before they are sent.
func (k *Kit) Controller(resource string, cfg model.FormConfiguration, opts ...formstate.Option) (*formstate.Controller, error) {
	if k == nil {
		return nil, errors.New("formkit: kit is nil")
	}
	records, err := k.Client.Records(resource)
	if err != nil {
		return nil, err
	}
	base := []formstate.Option{
		formstate.WithLocationCascade(k.Locations),
		formstate.WithSchemaCheck(schema.NewValidator(cfg)),
		formstate.WithLogger(k.logger),
		formstate.WithMetrics(k.metrics),
	}
	return formstate.New(records, append(base, opts...)...), nil
}

// Validate loads the configuration of formType and validates input against
// it.
func (k *Kit) Validate(ctx context.Context, formType string, input model.Record) (model.Record, validation.FieldErrors, error) {
	if k == nil {
		return nil, nil, errors.New("formkit: kit is nil")
	}
	cfg, err := k.Forms.LoadFields(ctx, formType, false)
	if err != nil {
		return nil, nil, err
	}
	data, errs := formstate.ValidateRecord(cfg, input, k.Entities.Current(),
		formstate.WithSchemaCheck(schema.NewValidator(cfg)),
		formstate.WithLogger(k.logger),
		formstate.WithMetrics(k.metrics),
	)
	return data, errs, nil
}

// Close drops pending location loads and waits for in-flight ones.
func (k *Kit) Close() {
	if k == nil || k.Locations == nil {
		return
	}
	k.Locations.CancelPendingRequests()
	k.Locations.Wait()
}

// EmbeddedTemplates exposes the built-in summary templates.
func EmbeddedTemplates() fs.FS {
	return summary.TemplatesFS()
}
