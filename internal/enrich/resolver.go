// Package enrich implements the provider fallback resolver and the
// cache-composing enrichment service shared by every enrichment kind.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

// ErrNotConfigured is returned by a provider whose credentials are absent.
// It fails fast so the chain advances without attempting a doomed network
// call.
var ErrNotConfigured = errors.New("provider not configured")

// Provider is one external service in a fallback chain. Timeout bounds a
// single invocation; zero means the caller's context alone bounds it.
type Provider[I, O any] struct {
	Name    string
	Timeout time.Duration
	Func    func(ctx context.Context, in I) (O, error)
}

// Outcome is a successful resolution tagged with the provider that answered.
type Outcome[O any] struct {
	Value    O
	Provider string
}

// ProviderFailure records why one provider in a chain failed.
type ProviderFailure struct {
	Provider string
	Err      error
}

// ChainError aggregates the per-provider reasons when every provider in a
// chain failed.
type ChainError struct {
	Failures []ProviderFailure
}

func (e *ChainError) Error() string {
	var b strings.Builder
	b.WriteString("all providers failed")
	for i, f := range e.Failures {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Provider, f.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying provider errors to errors.Is/As.
func (e *ChainError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Chain tries providers strictly in declared order until one succeeds.
// Providers run sequentially, never concurrently, to respect rate limits.
type Chain[I, O any] struct {
	service   string
	providers []Provider[I, O]
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewChain creates a Chain. The service name labels metrics and logs.
func NewChain[I, O any](service string, providers []Provider[I, O], logger *slog.Logger, metrics *observability.Metrics) *Chain[I, O] {
	return &Chain[I, O]{
		service:   service,
		providers: providers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Resolve invokes each provider in order with a bounded timeout, returning
// the first success. Caller cancellation aborts iteration immediately; a
// cancelled resolve never keeps trying providers for a result nobody will
// read.
func (c *Chain[I, O]) Resolve(ctx context.Context, in I) (Outcome[O], error) {
	var failures []ProviderFailure

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Outcome[O]{}, err
		}

		value, err := c.invoke(ctx, p, in)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome[O]{}, ctx.Err()
			}
			c.logger.Warn("provider failed, trying next",
				"service", c.service,
				"provider", p.Name,
				"error", err,
			)
			c.metrics.ProviderCalls.WithLabelValues(p.Name, "error").Inc()
			failures = append(failures, ProviderFailure{Provider: p.Name, Err: err})
			continue
		}

		c.metrics.ProviderCalls.WithLabelValues(p.Name, "success").Inc()
		return Outcome[O]{Value: value, Provider: p.Name}, nil
	}

	c.metrics.ChainExhausted.WithLabelValues(c.service).Inc()
	return Outcome[O]{}, &ChainError{Failures: failures}
}

func (c *Chain[I, O]) invoke(ctx context.Context, p Provider[I, O], in I) (O, error) {
	callCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := p.Func(callCtx, in)
	c.metrics.ProviderDuration.WithLabelValues(p.Name).Observe(time.Since(start).Seconds())
	return value, err
}
