package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachepkg "github.com/couchcryptid/disaster-response-core/internal/cache"
	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

func testService(t *testing.T, providers []Provider[string, string], clock clockwork.Clock, ttl time.Duration) (*Service[string, string], *cachepkg.Memory) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	backend := cachepkg.NewMemory()
	c := cachepkg.New(backend, clock, discardLogger(), metrics)
	chain := NewChain("test", providers, discardLogger(), metrics)
	keyFn := func(in string) string { return cachepkg.Key("test", in) }
	return NewService("test", c, chain, keyFn, ttl, discardLogger(), metrics), backend
}

func TestService_CacheHitSkipsProviders(t *testing.T) {
	var calls int
	svc, _ := testService(t, []Provider[string, string]{succeeding("a", "X", &calls)}, nil, time.Hour)
	ctx := context.Background()

	first, err := svc.Enrich(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, "X", first)

	second, err := svc.Enrich(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call within TTL must not invoke any provider")
}

func TestService_FailureIsNotCached(t *testing.T) {
	svc, backend := testService(t, []Provider[string, string]{
		failing("a", errors.New("down")),
	}, nil, time.Hour)
	ctx := context.Background()

	_, err := svc.Enrich(ctx, "input")
	var chainErr *ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, 0, backend.Len(), "a failed resolve must not write a cache entry")
}

func TestService_ReattemptsAfterFailure(t *testing.T) {
	attempts := 0
	svc, _ := testService(t, []Provider[string, string]{{
		Name: "flaky",
		Func: func(context.Context, string) (string, error) {
			attempts++
			if attempts == 1 {
				return "", errors.New("transient outage")
			}
			return "X", nil
		},
	}}, nil, time.Hour)
	ctx := context.Background()

	_, err := svc.Enrich(ctx, "input")
	require.Error(t, err)

	got, err := svc.Enrich(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, "X", got)
	assert.Equal(t, 2, attempts)
}

func TestService_ExpiredEntryReResolves(t *testing.T) {
	fc := clockwork.NewFakeClock()
	var calls int
	svc, _ := testService(t, []Provider[string, string]{succeeding("a", "X", &calls)}, fc, time.Hour)
	ctx := context.Background()

	_, err := svc.Enrich(ctx, "input")
	require.NoError(t, err)

	fc.Advance(2 * time.Hour)

	_, err = svc.Enrich(ctx, "input")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "expired entry must trigger a fresh resolve")
}

func TestService_EquivalentInputsShareEntry(t *testing.T) {
	var calls int
	svc, _ := testService(t, []Provider[string, string]{succeeding("a", "X", &calls)}, nil, time.Hour)
	ctx := context.Background()

	_, err := svc.Enrich(ctx, "Lower Manhattan, NYC")
	require.NoError(t, err)
	_, err = svc.Enrich(ctx, "  lower manhattan,   nyc")
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "canonically equal inputs must share one cache entry")
}
