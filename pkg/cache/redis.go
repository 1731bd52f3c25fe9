package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces formkit keys.
const DefaultRedisPrefix = "formkit"

// RedisOption configures a Redis cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix string
	ttl    time.Duration
}

// WithPrefix sets the key namespace.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		c.prefix = prefix
	}
}

// WithExpiration sets the redis TTL of stored entries. Zero disables expiry.
func WithExpiration(ttl time.Duration) RedisOption {
	return func(c *redisConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Redis stores JSON encoded values in redis.
type Redis[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis wraps a redis client.
func NewRedis[T any](client redis.UniversalClient, opts ...RedisOption) (*Redis[T], error) {
	if client == nil {
		return nil, errors.New("cache: redis client is required")
	}
	cfg := redisConfig{prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Redis[T]{client: client, prefix: cfg.prefix, ttl: cfg.ttl}, nil
}

// Get decodes the value stored under key.
func (r *Redis[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := r.client.Get(ctx, joinKey(r.prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("cache: redis get %s: %w", key, err)
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return value, true, nil
}

// Set encodes value and stores it under key.
func (r *Redis[T]) Set(ctx context.Context, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, joinKey(r.prefix, key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (r *Redis[T]) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, joinKey(r.prefix, key)).Err(); err != nil {
		return fmt.Errorf("cache: redis del %s: %w", key, err)
	}
	return nil
}

// Clear removes every key under the prefix.
func (r *Redis[T]) Clear(ctx context.Context) error {
	keys, err := r.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache: redis clear: %w", err)
	}
	return nil
}

// Keys returns the stored keys without the prefix, sorted.
func (r *Redis[T]) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	stripped := joinKey(r.prefix, "")
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		out = append(out, strings.TrimPrefix(key, stripped))
	}
	sort.Strings(out)
	return out, nil
}

func (r *Redis[T]) scan(ctx context.Context) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	pattern := joinKey(r.prefix, "*")
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("cache: redis scan: %w", err)
		}
		out = append(out, keys...)
		cursor = next
		if cursor == 0 {
			return out, nil
		}
	}
}
