package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"basecamp/internal/observability"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by GetJSON when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GetJSON fetches key and unmarshals the stored JSON into dest.
// Returns ErrCacheMiss when the key does not exist or Redis is not configured.
func GetJSON(ctx context.Context, key string, dest any) error {
	rdb := GetClient()
	if rdb == nil {
		return ErrCacheMiss
	}

	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		observability.RedisErrors.WithLabelValues("get").Inc()
		return err
	}
	return json.Unmarshal(raw, dest)
}

// SetJSON marshals value to JSON and stores it under key with the given TTL.
// A nil client is a no-op so callers never have to branch on cache availability.
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	rdb := GetClient()
	if rdb == nil {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("set").Inc()
		return err
	}
	return nil
}

// Delete removes keys from the cache. Missing keys and a nil client are not
// errors.
func Delete(ctx context.Context, keys ...string) error {
	rdb := GetClient()
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("del").Inc()
		return err
	}
	return nil
}

// Aside implements the cache-aside pattern: return the cached value under key
// if present, otherwise call fetch, store its result with the given TTL and
// return it. Cache failures degrade to fetching; a fetch failure is never
// cached.
func Aside[T any](ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	var value T

	if err := GetJSON(ctx, key, &value); err == nil {
		return value, true, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return value, false, err
	}

	// Best effort write-back, the fresh value is still served on failure.
	_ = SetJSON(ctx, key, value, ttl)
	return value, false, nil
}
