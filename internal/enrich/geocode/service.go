package geocode

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/cache"
	"github.com/couchcryptid/disaster-response-core/internal/config"
	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/enrich"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

const namespace = "geocode"

// Service resolves location text to coordinates through the configured
// provider chain, memoized in the TTL cache.
type Service struct {
	svc *enrich.Service[string, domain.LocationResult]
}

// NewService builds the provider chain in the order named by
// cfg.GeocodeProviders and wraps it with the cache.
func NewService(cfg *config.Config, c *cache.Cache, logger *slog.Logger, metrics *observability.Metrics) *Service {
	providers := make([]enrich.Provider[string, domain.LocationResult], 0, len(cfg.GeocodeProviders))
	for _, name := range cfg.GeocodeProviders {
		switch name {
		case config.ProviderGoogle:
			client := NewGoogleClient(cfg.GoogleMapsAPIKey, cfg.ProviderTimeout, logger)
			providers = append(providers, enrich.Provider[string, domain.LocationResult]{
				Name:    name,
				Timeout: cfg.ProviderTimeout,
				Func:    client.Geocode,
			})
		case config.ProviderMapbox:
			client := NewMapboxClient(cfg.MapboxToken, cfg.ProviderTimeout, logger)
			providers = append(providers, enrich.Provider[string, domain.LocationResult]{
				Name:    name,
				Timeout: cfg.ProviderTimeout,
				Func:    client.Geocode,
			})
		case config.ProviderNominatim:
			client := NewNominatimClient(cfg.NominatimBaseURL, cfg.ProviderTimeout, logger)
			providers = append(providers, enrich.Provider[string, domain.LocationResult]{
				Name:    name,
				Timeout: cfg.ProviderTimeout,
				Func:    client.Geocode,
			})
		}
	}
	return NewServiceWithProviders(providers, c, cfg.GeocodeTTL, logger, metrics)
}

// NewServiceWithProviders wires an explicit provider chain. Tests use this to
// substitute fakes.
func NewServiceWithProviders(providers []enrich.Provider[string, domain.LocationResult], c *cache.Cache, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service {
	chain := enrich.NewChain(namespace, providers, logger, metrics)
	keyFn := func(text string) string { return cache.Key(namespace, text) }
	return &Service{
		svc: enrich.NewService(namespace, c, chain, keyFn, ttl, logger, metrics),
	}
}

// Resolve geocodes text. On total provider failure the *enrich.ChainError
// propagates so the caller can degrade (record saved without coordinates).
func (s *Service) Resolve(ctx context.Context, text string) (domain.LocationResult, error) {
	return s.svc.Enrich(ctx, text)
}
