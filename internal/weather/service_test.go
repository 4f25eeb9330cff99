package weather

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheUsesItsOwnClient(t *testing.T) {
	// The package-level cache client is deliberately left unset; RedisCache
	// must work with nothing but the client it holds.
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rc := RedisCache{Client: rdb}
	ctx := context.Background()

	var got Snapshot
	require.ErrorIs(t, rc.Get(ctx, "weather:1", &got), ErrMiss)

	want := Snapshot{
		ThemeID:    1,
		Location:   "Andermatt",
		Conditions: Conditions{Temperature: 3.2, Description: "snow"},
		FetchedAt:  "2026-08-28T10:00:00Z",
	}
	require.NoError(t, rc.Set(ctx, "weather:1", want, time.Minute))
	require.NoError(t, rc.Get(ctx, "weather:1", &got))
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists("weather:1"))
}

func TestRedisCacheNilClient(t *testing.T) {
	var rc RedisCache
	ctx := context.Background()

	assert.NoError(t, rc.Set(ctx, "k", Snapshot{}, time.Minute))

	var got Snapshot
	assert.ErrorIs(t, rc.Get(ctx, "k", &got), ErrMiss)
}
