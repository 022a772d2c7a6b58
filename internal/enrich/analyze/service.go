package analyze

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

const namespace = "analyze"

// Service scores report content, memoized in the TTL cache. The heuristic
// terminal provider means Analyze never returns an error in practice; the
// error return exists only to satisfy the enrichment contract.
type Service struct {
	svc *enrich.Service[Input, domain.AnalysisResult]
}

// NewService builds the analysis chain: the generative provider when
// configured, the heuristic floor always last.
func NewService(cfg *config.Config, c *cache.Cache, logger *slog.Logger, metrics *observability.Metrics) *Service {
	var providers []enrich.Provider[Input, domain.AnalysisResult]

	gemini := NewGeminiClient(cfg.GeminiAPIKey, cfg.ProviderTimeout, logger)
	providers = append(providers, enrich.Provider[Input, domain.AnalysisResult]{
		Name:    "gemini",
		Timeout: cfg.ProviderTimeout,
		Func:    gemini.Analyze,
	})
	providers = append(providers, enrich.Provider[Input, domain.AnalysisResult]{
		Name: "heuristic",
		Func: Heuristic{}.Analyze,
	})

	return NewServiceWithProviders(providers, c, cfg.AnalysisTTL, logger, metrics)
}

// NewServiceWithProviders wires an explicit provider chain. Tests use this to
// substitute fakes.
func NewServiceWithProviders(providers []enrich.Provider[Input, domain.AnalysisResult], c *cache.Cache, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Service {
	chain := enrich.NewChain(namespace, providers, logger, metrics)
	keyFn := func(in Input) string {
		return cache.KeyParams(namespace, map[string]string{
			"text":  in.Text,
			"media": in.MediaURL,
		})
	}
	return &Service{
		svc: enrich.NewService(namespace, c, chain, keyFn, ttl, logger, metrics),
	}
}

// Analyze scores in.Text (and optional media reference).
func (s *Service) Analyze(ctx context.Context, in Input) (domain.AnalysisResult, error) {
	return s.svc.Enrich(ctx, in)
}
