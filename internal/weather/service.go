package weather

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"basecamp/internal/cache"
	"basecamp/internal/models"
	"basecamp/internal/observability"
	"basecamp/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cache is the small surface the weather service needs from a cache. The
// production implementation sits on Redis; tests inject an in-memory fake.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ErrMiss signals a cache miss to the service.
var ErrMiss = errors.New("weather cache miss")

// RedisCache adapts the client it is given to the Cache interface with JSON
// encoding. A nil client behaves as an always-miss cache.
type RedisCache struct {
	Client *redis.Client
}

func (r RedisCache) Get(ctx context.Context, key string, dest any) error {
	if r.Client == nil {
		return ErrMiss
	}
	raw, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (r RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.Client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, raw, ttl).Err()
}

// Result wraps a snapshot with its cache provenance.
type Result struct {
	Snapshot
	Cached bool `json:"cached"`
}

// Service serves theme weather with a bounded-staleness cache in front of the
// provider.
type Service struct {
	themeRepo repository.ThemeRepository
	provider  Provider
	cache     Cache
	ttl       time.Duration
}

// NewService creates a weather service. A nil cache disables caching.
func NewService(themeRepo repository.ThemeRepository, provider Provider, c Cache) *Service {
	return &Service{
		themeRepo: themeRepo,
		provider:  provider,
		cache:     c,
		ttl:       cache.WeatherTTL,
	}
}

// ForTheme returns the weather for the theme's location, cached for up to ten
// minutes per theme. Themes without coordinates are a validation error, not
// an upstream one. Provider failures are never cached.
func (s *Service) ForTheme(ctx context.Context, themeID uint) (*Result, error) {
	theme, err := s.themeRepo.GetByID(ctx, themeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Theme not found")
		}
		return nil, err
	}
	if !theme.HasLocation() {
		return nil, models.NewValidationError("Theme has no location data")
	}

	key := cache.WeatherKey(themeID)

	if s.cache != nil {
		var cached Snapshot
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			observability.WeatherCacheHits.Inc()
			return &Result{Snapshot: cached, Cached: true}, nil
		}
	}

	snapshot, err := s.provider.Current(ctx, *theme.Latitude, *theme.Longitude)
	if err != nil {
		return nil, err
	}
	snapshot.ThemeID = theme.ID
	if snapshot.Location == "" {
		snapshot.Location = theme.LocationName
	}

	if s.cache != nil {
		// Best effort, a write failure only costs an extra upstream call.
		_ = s.cache.Set(ctx, key, snapshot, s.ttl)
	}

	return &Result{Snapshot: *snapshot, Cached: false}, nil
}
