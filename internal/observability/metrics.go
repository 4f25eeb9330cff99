package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basecamp_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WeatherUpstreamRequests counts outbound weather provider calls by outcome.
	WeatherUpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basecamp_weather_upstream_requests_total",
		Help: "Total number of weather provider requests by outcome",
	}, []string{"outcome"})

	// WeatherCacheHits counts weather lookups served from cache.
	WeatherCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basecamp_weather_cache_hits_total",
		Help: "Total number of weather lookups served from the cache",
	})

	// WeatherUpstreamLatency records weather provider latency.
	WeatherUpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basecamp_weather_upstream_latency_seconds",
		Help:    "Weather provider request latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
