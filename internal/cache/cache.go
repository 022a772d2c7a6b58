package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// Entry is one cached enrichment result. At most one live entry exists per key.
type Entry struct {
	Key       string
	Value     json.RawMessage
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Backend is the durable record store behind the cache. Implementations must
// make Put an atomic upsert; concurrent writers for the same key race and the
// last write observed by the store wins.
type Backend interface {
	// Get returns the entry for key, expired or not. The second return is
	// false when no entry exists.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put upserts the entry, unconditionally overwriting any existing row.
	Put(ctx context.Context, e Entry) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// DeleteIfExpired removes the entry for key only when its expiry is at or
	// before now. An entry refreshed by a concurrent Put survives.
	DeleteIfExpired(ctx context.Context, key string, now time.Time) error

	// DeleteExpired removes every entry with ExpiresAt before now and reports
	// how many rows were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Cache is a TTL key/value store over a Backend.
type Cache struct {
	backend Backend
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Cache. Pass a nil clock to use real time.
func New(backend Backend, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		backend: backend,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// Get returns the stored value if present and unexpired. A backend failure is
// treated as a miss so callers degrade to re-computation. An expired entry is
// a miss and is deleted best-effort on the way out.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	e, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed, treating as miss", "key", key, "error", err)
		c.metrics.CacheLookups.WithLabelValues("error").Inc()
		return nil, false
	}
	if !ok {
		c.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	now := c.clock.Now()
	if !now.Before(e.ExpiresAt) {
		c.metrics.CacheLookups.WithLabelValues("expired").Inc()
		// Conditional so a concurrent Set that just refreshed the key is
		// not thrown away with the stale entry.
		if err := c.backend.DeleteIfExpired(ctx, key, now); err != nil {
			c.logger.Warn("stale cache entry delete failed", "key", key, "error", err)
		}
		return nil, false
	}
	c.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return e.Value, true
}

// Set upserts value under key with expiry now+ttl. Failures are logged and
// swallowed: a cache that cannot be written must not fail the request that
// just computed the value.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value marshal failed", "key", key, "error", err)
		c.metrics.CacheWriteFails.Inc()
		return
	}
	now := c.clock.Now()
	e := Entry{
		Key:       key,
		Value:     raw,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := c.backend.Put(ctx, e); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
		c.metrics.CacheWriteFails.Inc()
	}
}

// Sweep removes all expired entries and reports how many were deleted.
func (c *Cache) Sweep(ctx context.Context) (int, error) {
	n, err := c.backend.DeleteExpired(ctx, c.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired entries: %w", err)
	}
	return n, nil
}

// CheckReadiness probes the backend with a read so /readyz reflects cache
// store availability.
func (c *Cache) CheckReadiness(ctx context.Context) error {
	if _, _, err := c.backend.Get(ctx, "readiness-probe"); err != nil {
		return fmt.Errorf("cache backend unavailable: %w", err)
	}
	return nil
}
