package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formkit/pkg/model"
)

// DefaultMaxAge is the refresh window used by Ensure.
const DefaultMaxAge = 60 * time.Minute

// ErrEntityIDRequired is returned when fetching without an entity id.
var ErrEntityIDRequired = errors.New("entity: entity id is required")

// Service fetches entity data.
type Service interface {
	Entity(ctx context.Context, id int) (Entity, error)
	Nationalities(ctx context.Context) ([]model.Nationality, error)
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithClock injects the time source used for the refresh window.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the provider logger.
func WithLogger(logger zerolog.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// Provider keeps the current entity and its nationality list.
type Provider struct {
	service Service
	now     func() time.Time
	logger  zerolog.Logger

	mu            sync.RWMutex
	entity        *Entity
	nationalities []model.Nationality
	lastFetch     time.Time
}

// NewProvider constructs a provider over service.
func NewProvider(service Service, opts ...ProviderOption) *Provider {
	p := &Provider{service: service, now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Fetch loads the entity and remembers the fetch time.
func (p *Provider) Fetch(ctx context.Context, id int) (*Context, error) {
	if id <= 0 {
		return nil, ErrEntityIDRequired
	}
	if p.service == nil {
		return nil, errors.New("entity: service is not configured")
	}
	e, err := p.service.Entity(ctx, id)
	if err != nil {
		p.logger.Error().Err(err).Int("entity_id", id).Msg("failed to fetch healthcare entity")
		return nil, fmt.Errorf("entity: fetch %d: %w", id, err)
	}
	p.mu.Lock()
	p.entity = &e
	p.lastFetch = p.now()
	p.mu.Unlock()
	return p.Current(), nil
}

// LoadNationalities fetches the nationality list once. Failures are logged
// and leave the list empty.
func (p *Provider) LoadNationalities(ctx context.Context) {
	p.mu.RLock()
	loaded := len(p.nationalities) > 0
	p.mu.RUnlock()
	if loaded || p.service == nil {
		return
	}
	list, err := p.service.Nationalities(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to load nationalities")
		return
	}
	p.mu.Lock()
	p.nationalities = sortedNationalities(list)
	p.mu.Unlock()
}

// Ensure returns the entity, fetching it when it is missing, belongs to a
// different id or is older than maxAge. Nationalities are loaded as well.
func (p *Provider) Ensure(ctx context.Context, id int, maxAge time.Duration) (*Context, error) {
	p.mu.RLock()
	same := p.entity != nil && p.entity.ID == id
	p.mu.RUnlock()
	if !same || p.ShouldRefresh(maxAge) {
		if _, err := p.Fetch(ctx, id); err != nil {
			return nil, err
		}
	}
	p.LoadNationalities(ctx)
	return p.Current(), nil
}

// Current returns a copy of the loaded entity context, or nil.
func (p *Provider) Current() *Context {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.entity == nil {
		return nil
	}
	return New(*p.entity, p.nationalities)
}

// Update merges changes into the loaded entity.
func (p *Provider) Update(apply func(*Entity)) {
	if apply == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.entity == nil {
		return
	}
	updated := *p.entity
	apply(&updated)
	p.entity = &updated
}

// Clear forgets the loaded entity.
func (p *Provider) Clear() {
	p.mu.Lock()
	p.entity = nil
	p.lastFetch = time.Time{}
	p.mu.Unlock()
}

// LastFetch returns the time of the last successful fetch.
func (p *Provider) LastFetch() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastFetch
}

// ShouldRefresh reports whether the entity was never fetched or is older
// than maxAge. A non-positive maxAge uses DefaultMaxAge.
func (p *Provider) ShouldRefresh(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastFetch.IsZero() {
		return true
	}
	return p.now().Sub(p.lastFetch) > maxAge
}
