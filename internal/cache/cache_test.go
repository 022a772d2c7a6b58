package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-response-core/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCache(backend Backend, clock clockwork.Clock) *Cache {
	return New(backend, clock, discardLogger(), observability.NewMetricsForTesting())
}

// --- failing backend for degradation tests ---

type failingBackend struct {
	err error
}

func (b *failingBackend) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, b.err
}

func (b *failingBackend) Put(context.Context, Entry) error { return b.err }

func (b *failingBackend) Delete(context.Context, string) error { return b.err }

func (b *failingBackend) DeleteIfExpired(context.Context, string, time.Time) error { return b.err }

func (b *failingBackend) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, b.err
}

func TestCache_RoundTrip(t *testing.T) {
	c := testCache(NewMemory(), nil)
	ctx := context.Background()

	c.Set(ctx, "k", map[string]string{"city": "Austin"}, time.Hour)

	raw, ok := c.Get(ctx, "k")
	require.True(t, ok)

	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Austin", got["city"])
}

func TestCache_MissForUnknownKey(t *testing.T) {
	c := testCache(NewMemory(), nil)

	_, ok := c.Get(context.Background(), "never-set")
	assert.False(t, ok)
}

func TestCache_ExpiryAndLazyEviction(t *testing.T) {
	fc := clockwork.NewFakeClock()
	backend := NewMemory()
	c := testCache(backend, fc)
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Second)
	fc.Advance(2 * time.Second)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "entry past its TTL must be a miss")
	assert.Equal(t, 0, backend.Len(), "stale entry should be deleted on read")
}

// refreshOnReadBackend refreshes the key right after an expired read,
// interleaving a writer between the read and the lazy eviction.
type refreshOnReadBackend struct {
	*Memory
	refresh Entry
}

func (b *refreshOnReadBackend) Get(ctx context.Context, key string) (Entry, bool, error) {
	e, ok, err := b.Memory.Get(ctx, key)
	if ok && key == b.refresh.Key {
		_ = b.Memory.Put(ctx, b.refresh)
	}
	return e, ok, err
}

func TestCache_LazyEvictionSparesConcurrentRefresh(t *testing.T) {
	fc := clockwork.NewFakeClock()
	mem := NewMemory()
	fresh := Entry{
		Key:       "k",
		Value:     json.RawMessage(`"fresh"`),
		ExpiresAt: fc.Now().Add(time.Hour),
		CreatedAt: fc.Now(),
	}
	backend := &refreshOnReadBackend{Memory: mem, refresh: fresh}
	c := testCache(backend, fc)
	ctx := context.Background()

	c.Set(ctx, "k", "stale", time.Second)
	fc.Advance(2 * time.Second)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "the read still observed the stale entry")

	raw, ok := c.Get(ctx, "k")
	require.True(t, ok, "the refreshed entry must survive the lazy eviction")

	var got string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "fresh", got)
}

func TestMemory_DeleteIfExpired(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, m.Put(ctx, Entry{Key: "stale", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, m.Put(ctx, Entry{Key: "fresh", ExpiresAt: now.Add(time.Minute)}))

	require.NoError(t, m.DeleteIfExpired(ctx, "stale", now))
	require.NoError(t, m.DeleteIfExpired(ctx, "fresh", now))
	require.NoError(t, m.DeleteIfExpired(ctx, "missing", now))

	_, ok, err := m.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCache_EntryAtExactExpiryIsStale(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := testCache(NewMemory(), fc)
	ctx := context.Background()

	c.Set(ctx, "k", "v", time.Second)
	fc.Advance(time.Second)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_Overwrite(t *testing.T) {
	backend := NewMemory()
	c := testCache(backend, nil)
	ctx := context.Background()

	c.Set(ctx, "k", "v1", time.Hour)
	c.Set(ctx, "k", "v2", time.Hour)

	assert.Equal(t, 1, backend.Len(), "upsert must leave exactly one entry per key")

	raw, ok := c.Get(ctx, "k")
	require.True(t, ok)

	var got string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "v2", got)
}

func TestCache_BackendReadErrorIsMiss(t *testing.T) {
	c := testCache(&failingBackend{err: errors.New("store down")}, nil)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok, "backend failure must degrade to a miss, not an error")
}

func TestCache_BackendWriteErrorIsSwallowed(t *testing.T) {
	c := testCache(&failingBackend{err: errors.New("store down")}, nil)

	// Must not panic or surface the failure.
	c.Set(context.Background(), "k", "v", time.Hour)
}

func TestCache_SweepRemovesOnlyExpired(t *testing.T) {
	fc := clockwork.NewFakeClock()
	backend := NewMemory()
	c := testCache(backend, fc)
	ctx := context.Background()

	c.Set(ctx, "stale", "v", time.Second)
	c.Set(ctx, "fresh", "v", time.Hour)
	fc.Advance(2 * time.Second)

	n, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, backend.Len())

	_, ok := c.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestCache_CheckReadiness(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, testCache(NewMemory(), nil).CheckReadiness(ctx))
	assert.Error(t, testCache(&failingBackend{err: errors.New("store down")}, nil).CheckReadiness(ctx))
}
