// Package weather proxies an external weather provider for themes that carry
// coordinates, with a short cache so the provider is not hit on every request.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"basecamp/internal/models"
	"basecamp/internal/observability"
)

// Conditions is the normalized weather payload inside the response.
type Conditions struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Wind        float64 `json:"wind"`
	Description string  `json:"description"`
}

// Snapshot is a located observation. It is both the provider's return value
// and the cached representation.
type Snapshot struct {
	ThemeID    uint       `json:"theme_id"`
	Location   string     `json:"location"`
	Conditions Conditions `json:"weather"`
	FetchedAt  string     `json:"fetched_at"`
}

// Provider fetches current weather for a coordinate pair.
type Provider interface {
	Current(ctx context.Context, lat, lon float64) (*Snapshot, error)
}

// Client talks to the OpenWeatherMap current weather API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a weather API client. The timeout bounds the whole
// upstream round trip.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// upstreamResponse mirrors the subset of the provider payload we use.
type upstreamResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current fetches the current weather for lat/lon in metric units. Any
// upstream failure (transport, non-200, malformed body) is mapped to an
// upstream error so handlers respond 502.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Snapshot, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.WeatherUpstreamLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.WeatherUpstreamRequests.WithLabelValues("error").Inc()
		return nil, models.NewUpstreamError("Weather service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.WeatherUpstreamRequests.WithLabelValues("error").Inc()
		return nil, models.NewUpstreamError("Weather service unavailable",
			fmt.Errorf("upstream status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		observability.WeatherUpstreamRequests.WithLabelValues("error").Inc()
		return nil, models.NewUpstreamError("Weather service unavailable", err)
	}

	var upstream upstreamResponse
	if err := json.Unmarshal(body, &upstream); err != nil {
		observability.WeatherUpstreamRequests.WithLabelValues("error").Inc()
		return nil, models.NewUpstreamError("Weather service unavailable", err)
	}

	observability.WeatherUpstreamRequests.WithLabelValues("ok").Inc()

	snapshot := &Snapshot{
		Location: upstream.Name,
		Conditions: Conditions{
			Temperature: upstream.Main.Temp,
			FeelsLike:   upstream.Main.FeelsLike,
			Humidity:    upstream.Main.Humidity,
			Wind:        upstream.Wind.Speed,
		},
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if len(upstream.Weather) > 0 {
		snapshot.Conditions.Description = upstream.Weather[0].Description
	}
	return snapshot, nil
}
