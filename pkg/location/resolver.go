// Package location resolves the dependent country, state and city option
// lists of address forms.
//
// A Resolver belongs to a single form view. Debounced loads coalesce rapid
// calls per tier so only the last request reaches the location service;
// immediate loads always issue their own request. CancelPendingRequests stops
// scheduled loads and discards results of loads already in flight.
package location

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/metrics"
	"github.com/goliatone/go-formkit/pkg/model"
)

// DefaultDebounce is the quiet interval of debounced loads.
const DefaultDebounce = 300 * time.Millisecond

// Form data keys cleared by the cascade.
const (
	FieldCountry = "country"
	FieldState   = "state"
	FieldCity    = "city"
)

// Service is the remote location service.
type Service interface {
	Countries(ctx context.Context) ([]model.Country, error)
	States(ctx context.Context, countryCode string) ([]model.State, error)
	Cities(ctx context.Context, countryCode, stateCode string) ([]model.City, error)
}

// State is a snapshot of the resolver's option lists.
type State struct {
	Countries []model.Country
	States    []model.State
	Cities    []model.City
	Loading   model.LoadingFlags
}

type tier int

const (
	tierStates tier = iota
	tierCities
)

func (t tier) String() string {
	if t == tierCities {
		return "cities"
	}
	return "states"
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDebounce sets the quiet interval of debounced loads.
func WithDebounce(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithScheduler replaces the timer implementation.
func WithScheduler(s Scheduler) Option {
	return func(r *Resolver) {
		if s != nil {
			r.scheduler = s
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics counts location fetches.
func WithMetrics(m *metrics.Collectors) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// Resolver owns the cascade state of one form view.
type Resolver struct {
	service   Service
	scheduler Scheduler
	debounce  time.Duration
	logger    zerolog.Logger
	metrics   *metrics.Collectors

	mu        sync.Mutex
	countries []model.Country
	states    []model.State
	cities    []model.City
	inflight  [3]int // countries, states, cities
	lastErr   error

	generation uint64
	seq        [2]uint64
	pending    [2]Task
	scheduled  int
	idle       *sync.Cond
}

const countriesSlot = 2

// New constructs a resolver over service.
func New(service Service, opts ...Option) *Resolver {
	r := &Resolver{
		service:   service,
		scheduler: RealScheduler{},
		debounce:  DefaultDebounce,
		logger:    zerolog.Nop(),
	}
	r.idle = sync.NewCond(&r.mu)
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// LoadCountries fetches the country list once. Failures are logged and leave
// the list empty.
func (r *Resolver) LoadCountries(ctx context.Context) {
	r.mu.Lock()
	if len(r.countries) > 0 {
		r.mu.Unlock()
		return
	}
	r.inflight[countriesSlot]++
	r.mu.Unlock()

	r.metrics.LocationFetch("countries")
	list, err := r.service.Countries(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[countriesSlot]--
	if err != nil {
		r.lastErr = err
		r.countries = nil
		r.logger.Error().Err(err).Msg("failed to load countries")
		return
	}
	r.countries = append([]model.Country(nil), list...)
}

// LoadStatesForCountry schedules a debounced state load. Only the last call
// within the debounce window reaches the service.
func (r *Resolver) LoadStatesForCountry(countryCode string) {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		r.cancelTier(tierStates)
		r.mu.Lock()
		r.states = nil
		r.mu.Unlock()
		return
	}
	r.schedule(tierStates, func(ctx context.Context, gen, seq uint64) {
		r.fetchStates(ctx, countryCode, gen, seq)
	})
}

// LoadStatesForCountryImmediate loads states without debouncing.
func (r *Resolver) LoadStatesForCountryImmediate(ctx context.Context, countryCode string) {
	countryCode = strings.TrimSpace(countryCode)
	if countryCode == "" {
		r.mu.Lock()
		r.states = nil
		r.mu.Unlock()
		return
	}
	gen, seq := r.nextSeq(tierStates)
	r.fetchStates(ctx, countryCode, gen, seq)
}

// LoadCitiesForCountryAndState schedules a debounced city load. An empty
// stateCode requests every city of the country.
func (r *Resolver) LoadCitiesForCountryAndState(countryCode, stateCode string) {
	countryCode = strings.TrimSpace(countryCode)
	stateCode = strings.TrimSpace(stateCode)
	if countryCode == "" {
		r.cancelTier(tierCities)
		r.mu.Lock()
		r.cities = nil
		r.mu.Unlock()
		return
	}
	r.schedule(tierCities, func(ctx context.Context, gen, seq uint64) {
		r.fetchCities(ctx, countryCode, stateCode, gen, seq)
	})
}

// LoadCitiesForCountryAndStateImmediate loads cities without debouncing.
func (r *Resolver) LoadCitiesForCountryAndStateImmediate(ctx context.Context, countryCode, stateCode string) {
	countryCode = strings.TrimSpace(countryCode)
	stateCode = strings.TrimSpace(stateCode)
	if countryCode == "" {
		r.mu.Lock()
		r.cities = nil
		r.mu.Unlock()
		return
	}
	gen, seq := r.nextSeq(tierCities)
	r.fetchCities(ctx, countryCode, stateCode, gen, seq)
}

// ResolveCountryCode matches input against the loaded countries by code,
// then by name, ignoring case. It returns "" when nothing matches.
func (r *Resolver) ResolveCountryCode(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.countries {
		if strings.EqualFold(c.Code, input) {
			return c.Code
		}
	}
	for _, c := range r.countries {
		if strings.EqualFold(c.Name, input) {
			return c.Code
		}
	}
	return ""
}

// HandleCountryChange clears the state and city values of record and the
// dependent option lists, then schedules state and city loads for the new
// country.
func (r *Resolver) HandleCountryChange(countryCode string, record model.Record) {
	if record != nil {
		record[FieldState] = model.String("")
		record[FieldCity] = model.String("")
	}
	r.mu.Lock()
	r.states = nil
	r.cities = nil
	r.mu.Unlock()
	r.LoadStatesForCountry(countryCode)
	r.LoadCitiesForCountryAndState(countryCode, "")
}

// HandleStateChange clears the city value of record and the city options,
// then schedules a city load scoped to the new state.
func (r *Resolver) HandleStateChange(countryCode, stateCode string, record model.Record) {
	if record != nil {
		record[FieldCity] = model.String("")
	}
	r.mu.Lock()
	r.cities = nil
	r.mu.Unlock()
	r.LoadCitiesForCountryAndState(countryCode, stateCode)
}

// CancelPendingRequests stops scheduled loads and drops the results of loads
// already in flight.
func (r *Resolver) CancelPendingRequests() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.stopPendingLocked(tierStates)
	r.stopPendingLocked(tierCities)
}

// Wait blocks until scheduled loads have run or been stopped. Loads scheduled
// while waiting extend the wait. With a ManualScheduler the clock must be
// advanced first.
func (r *Resolver) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for r.scheduled > 0 {
		r.idle.Wait()
	}
}

// State returns a snapshot of the option lists and loading flags.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return State{
		Countries: append([]model.Country(nil), r.countries...),
		States:    append([]model.State(nil), r.states...),
		Cities:    append([]model.City(nil), r.cities...),
		Loading:   r.loadingLocked(),
	}
}

// Loading returns the loading flags.
func (r *Resolver) Loading() model.LoadingFlags {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadingLocked()
}

// StateOptions returns the loaded states as select options.
func (r *Resolver) StateOptions() []model.Option { return model.StateOptions(r.State().States) }

// CityOptions returns the loaded cities as select options.
func (r *Resolver) CityOptions() []model.Option { return model.CityOptions(r.State().Cities) }

// CountryOptions returns the loaded countries as select options.
func (r *Resolver) CountryOptions() []model.Option {
	return model.CountryOptions(r.State().Countries)
}

// Err returns the last load failure.
func (r *Resolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *Resolver) loadingLocked() model.LoadingFlags {
	return model.LoadingFlags{
		Countries: r.inflight[countriesSlot] > 0,
		States:    r.inflight[tierStates] > 0,
		Cities:    r.inflight[tierCities] > 0,
	}
}

func (r *Resolver) nextSeq(t tier) (uint64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq[t]++
	return r.generation, r.seq[t]
}

func (r *Resolver) cancelTier(t tier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPendingLocked(t)
}

func (r *Resolver) stopPendingLocked(t tier) {
	task := r.pending[t]
	r.pending[t] = nil
	if task != nil && task.Stop() {
		r.doneLocked()
	}
}

func (r *Resolver) doneLocked() {
	r.scheduled--
	if r.scheduled == 0 {
		r.idle.Broadcast()
	}
}

func (r *Resolver) schedule(t tier, run func(ctx context.Context, gen, seq uint64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopPendingLocked(t)
	r.scheduled++
	var task Task
	task = r.scheduler.AfterFunc(r.debounce, func() {
		defer func() {
			r.mu.Lock()
			r.doneLocked()
			r.mu.Unlock()
		}()
		r.mu.Lock()
		if r.pending[t] == task {
			r.pending[t] = nil
		}
		r.seq[t]++
		gen, seq := r.generation, r.seq[t]
		r.mu.Unlock()
		run(context.Background(), gen, seq)
	})
	r.pending[t] = task
}

// begin marks a fetch of tier as in flight unless the resolver was cancelled
// since gen was captured.
func (r *Resolver) begin(t tier, gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.generation {
		return false
	}
	r.inflight[t]++
	return true
}

// finish clears the in-flight mark and reports whether the result is still
// current.
func (r *Resolver) finish(t tier, gen, seq uint64) bool {
	r.inflight[t]--
	return gen == r.generation && seq == r.seq[t]
}

func (r *Resolver) fetchStates(ctx context.Context, countryCode string, gen, seq uint64) {
	if !r.begin(tierStates, gen) {
		return
	}
	r.metrics.LocationFetch(tierStates.String())
	list, err := r.service.States(ctx, countryCode)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finish(tierStates, gen, seq) {
		return
	}
	if err != nil {
		r.lastErr = err
		r.states = nil
		r.logger.Error().Err(err).Str("country", countryCode).Msg("failed to load states")
		return
	}
	r.states = append([]model.State(nil), list...)
}

func (r *Resolver) fetchCities(ctx context.Context, countryCode, stateCode string, gen, seq uint64) {
	if !r.begin(tierCities, gen) {
		return
	}
	r.metrics.LocationFetch(tierCities.String())
	list, err := r.service.Cities(ctx, countryCode, stateCode)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finish(tierCities, gen, seq) {
		return
	}
	if err != nil {
		r.lastErr = err
		r.cities = nil
		r.logger.Error().Err(err).Str("country", countryCode).Str("state", stateCode).Msg("failed to load cities")
		return
	}
	r.cities = append([]model.City(nil), list...)
}
