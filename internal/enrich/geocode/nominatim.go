package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/domain"
)

// NominatimClient geocodes through the OpenStreetMap Nominatim API. It needs
// no credentials, which makes it the natural last link in the chain.
type NominatimClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewNominatimClient creates a Nominatim client against baseURL (the public
// instance or a self-hosted one).
func NewNominatimClient(baseURL string, timeout time.Duration, logger *slog.Logger) *NominatimClient {
	return &NominatimClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Geocode converts a free-text location description to coordinates.
func (c *NominatimClient) Geocode(ctx context.Context, text string) (domain.LocationResult, error) {
	params := url.Values{
		"q":      {text},
		"format": {"json"},
		"limit":  {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("create request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "disaster-response-core/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("nominatim geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.LocationResult{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return domain.LocationResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		return domain.LocationResult{}, ErrNoResults
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("parse latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.LocationResult{}, fmt.Errorf("parse longitude %q: %w", p.Lon, err)
	}

	return domain.LocationResult{
		Lat:              lat,
		Lng:              lng,
		FormattedAddress: p.DisplayName,
		Provider:         "nominatim",
	}, nil
}

// Nominatim API response types. Coordinates are strings on the wire.

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
