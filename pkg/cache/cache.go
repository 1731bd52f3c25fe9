// Package cache provides the keyed stores behind the configuration store:
// an in-process map with optional expiry and a redis-backed variant shared
// between processes.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache stores values of type T by key.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Set(ctx context.Context, key string, value T) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) ([]string, error)
}

// Clock returns the current time.
type Clock func() time.Time

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	ttl   time.Duration
	clock Clock
}

// WithTTL expires entries ttl after they were stored. Zero keeps entries
// until deleted.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(c *memoryConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source used for expiry.
func WithClock(clock Clock) MemoryOption {
	return func(c *memoryConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

type memoryEntry[T any] struct {
	value    T
	storedAt time.Time
}

// Memory is a mutex-guarded in-process cache.
type Memory[T any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[T]
	ttl     time.Duration
	clock   Clock
}

// NewMemory constructs an empty memory cache.
func NewMemory[T any](opts ...MemoryOption) *Memory[T] {
	cfg := memoryConfig{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Memory[T]{
		entries: make(map[string]memoryEntry[T]),
		ttl:     cfg.ttl,
		clock:   cfg.clock,
	}
}

func (m *Memory[T]) expired(entry memoryEntry[T]) bool {
	return m.ttl > 0 && m.clock().Sub(entry.storedAt) >= m.ttl
}

// Get returns the cached value. Expired entries are evicted and reported as
// misses.
func (m *Memory[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	if m.expired(entry) {
		m.mu.Lock()
		if current, ok := m.entries[key]; ok && current.storedAt.Equal(entry.storedAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return zero, false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key.
func (m *Memory[T]) Set(_ context.Context, key string, value T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry[T]{value: value, storedAt: m.clock()}
	return nil
}

// Delete removes key.
func (m *Memory[T]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Clear removes every entry.
func (m *Memory[T]) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry[T])
	m.mu.Unlock()
	return nil
}

// Keys returns the live keys, sorted.
func (m *Memory[T]) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.entries))
	for key, entry := range m.entries {
		if m.expired(entry) {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

func joinKey(prefix, key string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, ":") + ":" + key
}
