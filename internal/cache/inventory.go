package cache

import (
	"fmt"
	"time"
)

// Cache key builders and TTLs. Keeping them in one place makes the keyspace
// auditable and avoids drift between writers and invalidators.

const (
	// WeatherTTL bounds how stale a cached weather snapshot may be.
	WeatherTTL = 10 * time.Minute

	// StatsTTL bounds staleness of the admin stats dashboard payload.
	StatsTTL = 1 * time.Minute

	// CategoriesTTL bounds staleness of the category listing.
	CategoriesTTL = 5 * time.Minute
)

// WeatherKey is the cache key for a theme's weather snapshot.
func WeatherKey(themeID uint) string {
	return fmt.Sprintf("weather:theme:%d", themeID)
}

// StatsKey is the cache key for the admin stats payload.
func StatsKey() string {
	return "stats:admin"
}

// CategoriesKey is the cache key for the full category listing.
func CategoriesKey() string {
	return "categories:all"
}

// BlacklistKey is the key marking a revoked JWT by its jti claim.
func BlacklistKey(jti string) string {
	return "jwt:blacklist:" + jti
}
