package optionsearch

import (
	"net/http"

	"github.com/goliatone/go-formkit/pkg/model"
)

// EmptySearchMode decides what an empty query returns.
type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

const (
	defaultSearchParam = "q"
	defaultLimitParam  = "limit"
	defaultLimit       = 50
	maxLimit           = 200
)

// GuardFunc rejects a request before any option is resolved. Errors
// implementing HTTPError choose the status, anything else is a 403.
type GuardFunc func(r *http.Request) error

// Source resolves the option list for a request, e.g. the states of the
// country named in the query string.
type Source func(r *http.Request) ([]model.Option, error)

// Config holds the handler settings.
type Config struct {
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	EmptySearch  EmptySearchMode
	Guard        GuardFunc

	// Items is served when Source is nil.
	Items  []model.Option
	Source Source
}

// Option mutates a Config.
type Option func(*Config)

// NewConfig applies opts over the defaults and repairs zero values.
func NewConfig(opts ...Option) Config {
	cfg := Config{EmptySearch: EmptySearchTop}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.SearchParam == "" {
		cfg.SearchParam = defaultSearchParam
	}
	if cfg.LimitParam == "" {
		cfg.LimitParam = defaultLimitParam
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = maxLimit
	}
	if cfg.EmptySearch != EmptySearchNone {
		cfg.EmptySearch = EmptySearchTop
	}
	return cfg
}

func WithSearchParam(name string) Option {
	return func(c *Config) { c.SearchParam = name }
}

func WithLimitParam(name string) Option {
	return func(c *Config) { c.LimitParam = name }
}

func WithDefaultLimit(limit int) Option {
	return func(c *Config) { c.DefaultLimit = limit }
}

func WithMaxLimit(limit int) Option {
	return func(c *Config) { c.MaxLimit = limit }
}

func WithEmptySearch(mode EmptySearchMode) Option {
	return func(c *Config) { c.EmptySearch = mode }
}

func WithGuard(guard GuardFunc) Option {
	return func(c *Config) { c.Guard = guard }
}

// WithItems serves a fixed option list. The slice is copied.
func WithItems(items []model.Option) Option {
	return func(c *Config) {
		c.Items = append([]model.Option(nil), items...)
	}
}

// WithSource resolves options per request and takes precedence over
// WithItems.
func WithSource(source Source) Option {
	return func(c *Config) { c.Source = source }
}

// limit clamps a requested limit. Zero selects the default; negatives yield
// nothing.
func (c Config) limit(requested int) int {
	switch {
	case requested < 0:
		return 0
	case requested == 0:
		requested = c.DefaultLimit
	}
	if c.MaxLimit > 0 && requested > c.MaxLimit {
		return c.MaxLimit
	}
	return requested
}
