package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// Sweeper periodically deletes expired entries so storage stays bounded even
// for keys nothing reads again. It runs on its own schedule, decoupled from
// request traffic; a failed cycle is logged and never propagated.
type Sweeper struct {
	cache    *Cache
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewSweeper creates a Sweeper. Pass a nil clock to use real time.
func NewSweeper(c *Cache, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Sweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sweeper{
		cache:    c,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("cache sweeper started", "interval", s.interval)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("cache sweeper stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			n, err := s.cache.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				s.logger.Warn("cache sweep failed", "error", err)
				s.metrics.CacheSweepFails.Inc()
				continue
			}
			if n > 0 {
				s.logger.Debug("cache sweep removed expired entries", "count", n)
				s.metrics.CacheSwept.Add(float64(n))
			}
		}
	}
}
