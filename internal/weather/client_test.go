package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"basecamp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCurrent(t *testing.T) {
	var gotQuery map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"lat":   r.URL.Query().Get("lat"),
			"lon":   r.URL.Query().Get("lon"),
			"units": r.URL.Query().Get("units"),
			"appid": r.URL.Query().Get("appid"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "Zurich",
			"main": {"temp": 18.3, "feels_like": 17.9, "humidity": 62},
			"weather": [{"description": "scattered clouds"}],
			"wind": {"speed": 3.4}
		}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, "test-key", 2*time.Second)
	snapshot, err := client.Current(context.Background(), 47.37, 8.54)
	require.NoError(t, err)

	assert.Equal(t, "Zurich", snapshot.Location)
	assert.Equal(t, 18.3, snapshot.Conditions.Temperature)
	assert.Equal(t, 62, snapshot.Conditions.Humidity)
	assert.Equal(t, "scattered clouds", snapshot.Conditions.Description)
	assert.Equal(t, 3.4, snapshot.Conditions.Wind)
	assert.NotEmpty(t, snapshot.FetchedAt)

	assert.Equal(t, "metric", gotQuery["units"])
	assert.Equal(t, "test-key", gotQuery["appid"])
	assert.NotEmpty(t, gotQuery["lat"])
	assert.NotEmpty(t, gotQuery["lon"])
}

func TestClientMapsFailuresToUpstreamErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "k", time.Second)
		_, err := client.Current(context.Background(), 1, 2)
		requireUpstreamError(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer upstream.Close()

		client := NewClient(upstream.URL, "k", time.Second)
		_, err := client.Current(context.Background(), 1, 2)
		requireUpstreamError(t, err)
	})

	t.Run("unreachable host", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1", "k", 200*time.Millisecond)
		_, err := client.Current(context.Background(), 1, 2)
		requireUpstreamError(t, err)
	})
}

func requireUpstreamError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUpstreamUnavailable, appErr.Code)
}
