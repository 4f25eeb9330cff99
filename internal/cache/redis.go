// Package cache provides Redis connection management and cache helpers.
package cache

import (
	"context"
	"fmt"
	"time"

	"basecamp/internal/middleware"
	"basecamp/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis connects to Redis using the given URL and keeps a package-level
// client around for cache helpers. The application runs without caching when
// Redis is unreachable, so a connection failure is reported but not fatal.
func InitRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("ping").Inc()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	client = rdb
	middleware.Logger.Info("connected to redis", "addr", opts.Addr)
	return rdb, nil
}

// SetClient overrides the package-level client. Used by tests with miniredis.
func SetClient(rdb *redis.Client) {
	client = rdb
}

// GetClient returns the shared Redis client, or nil when Redis is not
// configured. Callers must tolerate a nil client.
func GetClient() *redis.Client {
	return client
}
