// Package geocode resolves free-text location descriptions to coordinates
// through an ordered chain of external geocoding providers.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/enrich"
)

// ErrNoResults is returned when a provider answered but found nothing for the
// query. The chain treats it like any other provider failure.
var ErrNoResults = errors.New("no geocoding results")

// MapboxClient geocodes through the Mapbox Geocoding API.
type MapboxClient struct {
	token      string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewMapboxClient creates a Mapbox geocoding client. An empty token yields a
// client that fails fast with enrich.ErrNotConfigured.
func NewMapboxClient(token string, timeout time.Duration, logger *slog.Logger) *MapboxClient {
	return &MapboxClient{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:  logger,
	}
}

// Geocode converts a free-text location description to coordinates.
func (c *MapboxClient) Geocode(ctx context.Context, text string) (domain.LocationResult, error) {
	if c.token == "" {
		return domain.LocationResult{}, enrich.ErrNotConfigured
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(text))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("mapbox geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.LocationResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.LocationResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.LocationResult{}, ErrNoResults
	}

	f := mapboxResp.Features[0]
	result := domain.LocationResult{
		FormattedAddress: f.PlaceName,
		Provider:         "mapbox",
	}
	if len(f.Center) == 2 {
		// Mapbox uses lon,lat order.
		result.Lng = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Mapbox API response types.

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
}
