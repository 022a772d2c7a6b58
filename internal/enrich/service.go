package enrich

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/cache"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// Service memoizes a fallback chain behind the TTL cache: derive key, check
// cache, resolve on miss, cache the success. Failures are never cached; a
// transient outage must not poison the cache for a full TTL window, so the
// next request re-attempts the chain.
type Service[I, O any] struct {
	name    string
	cache   *cache.Cache
	chain   *Chain[I, O]
	keyFn   func(I) string
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service. keyFn must be deterministic for equal logical
// inputs.
func NewService[I, O any](name string, c *cache.Cache, chain *Chain[I, O], keyFn func(I) string, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service[I, O] {
	return &Service[I, O]{
		name:    name,
		cache:   c,
		chain:   chain,
		keyFn:   keyFn,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

// Enrich resolves in through cache and chain. On a chain failure the typed
// *ChainError propagates to the caller untouched.
func (s *Service[I, O]) Enrich(ctx context.Context, in I) (O, error) {
	key := s.keyFn(in)

	if raw, ok := s.cache.Get(ctx, key); ok {
		var out O
		if err := json.Unmarshal(raw, &out); err == nil {
			s.metrics.Enrichments.WithLabelValues(s.name, "cache").Inc()
			return out, nil
		}
		// A payload this service cannot decode is as good as absent.
		s.logger.Warn("cached value undecodable, re-resolving", "service", s.name, "key", key)
	}

	outcome, err := s.chain.Resolve(ctx, in)
	if err != nil {
		s.metrics.Enrichments.WithLabelValues(s.name, "failed").Inc()
		var zero O
		return zero, err
	}

	s.cache.Set(ctx, key, outcome.Value, s.ttl)
	s.metrics.Enrichments.WithLabelValues(s.name, "provider").Inc()
	s.logger.Debug("enrichment resolved",
		"service", s.name,
		"provider", outcome.Provider,
		"ttl", s.ttl,
	)
	return outcome.Value, nil
}
