package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/enrich"
)

// GoogleClient geocodes through the Google Geocoding API.
type GoogleClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewGoogleClient creates a Google geocoding client. An empty API key yields
// a client that fails fast with enrich.ErrNotConfigured.
func NewGoogleClient(apiKey string, timeout time.Duration, logger *slog.Logger) *GoogleClient {
	return &GoogleClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api/geocode/json",
		logger:  logger,
	}
}

// Geocode converts a free-text location description to coordinates.
func (c *GoogleClient) Geocode(ctx context.Context, text string) (domain.LocationResult, error) {
	if c.apiKey == "" {
		return domain.LocationResult{}, enrich.ErrNotConfigured
	}

	params := url.Values{
		"address": {text},
		"key":     {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("google geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.LocationResult{}, fmt.Errorf("google API error: status %d: %s", resp.StatusCode, body)
	}

	var googleResp googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&googleResp); err != nil {
		return domain.LocationResult{}, fmt.Errorf("decode response: %w", err)
	}

	// Google signals lookup outcome in-band; only "OK" carries results.
	if googleResp.Status != "OK" {
		if googleResp.Status == "ZERO_RESULTS" {
			return domain.LocationResult{}, ErrNoResults
		}
		return domain.LocationResult{}, fmt.Errorf("google API status %s: %s", googleResp.Status, googleResp.ErrorMessage)
	}
	if len(googleResp.Results) == 0 {
		return domain.LocationResult{}, ErrNoResults
	}

	r := googleResp.Results[0]
	return domain.LocationResult{
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		FormattedAddress: r.FormattedAddress,
		Provider:         "google",
	}, nil
}

// Google API response types.

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}
