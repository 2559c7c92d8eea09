// Package cache is a short-TTL JSON read-through cache. Correctness never
// depends on expiry: writers overwrite the keys they affect, and read-through
// fills only ever land on an empty key.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the minimal key/value contract used by read-through callers.
type Store interface {
	// Get decodes the cached value into dest. ok is false on a miss.
	Get(ctx context.Context, key string, dest any) (ok bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Add stores value only when key is absent and reports whether it did.
	Add(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// RedisStore keeps JSON payloads in redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache.Get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		// a payload we can't decode is treated as a miss and overwritten by the loader
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache.Set %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache.Set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Add(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("cache.Add %s: %w", key, err)
	}
	stored, err := s.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cache.Add %s: %w", key, err)
	}
	return stored, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache.Delete: %w", err)
	}
	return nil
}

// NoopStore always misses. Used when redis is not configured.
type NoopStore struct{}

func (NoopStore) Get(context.Context, string, any) (bool, error)        { return false, nil }
func (NoopStore) Set(context.Context, string, any, time.Duration) error { return nil }
func (NoopStore) Add(context.Context, string, any, time.Duration) (bool, error) {
	return false, nil
}
func (NoopStore) Delete(context.Context, ...string) error { return nil }

var (
	_ Store = (*RedisStore)(nil)
	_ Store = NoopStore{}
)

// ReadThrough returns the cached value for key or loads, stores and returns it.
// The store is Add, so a slow load cannot clobber a value written meanwhile.
// Cache errors degrade to a load; only loader errors are returned.
func ReadThrough[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := store.Get(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	_, _ = store.Add(ctx, key, value, ttl)
	return value, nil
}
