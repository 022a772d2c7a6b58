package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *LibSQL {
	t.Helper()
	s, err := OpenLibSQL(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLibSQL_PutGetRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	e := Entry{
		Key:       "k",
		Value:     []byte(`{"lat":40.72}`),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
	require.NoError(t, s.Put(ctx, e))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.Value, got.Value)
	assert.Equal(t, e.ExpiresAt, got.ExpiresAt)
	assert.Equal(t, e.CreatedAt, got.CreatedAt)
}

func TestLibSQL_GetMissing(t *testing.T) {
	s := openTestDB(t)

	_, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLibSQL_PutOverwrites(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, Entry{Key: "k", Value: []byte(`"v1"`), ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, s.Put(ctx, Entry{Key: "k", Value: []byte(`"v2"`), ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`"v2"`), []byte(got.Value))
}

func TestLibSQL_DeleteIsIdempotent(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, Entry{Key: "k", Value: []byte(`"v"`), ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLibSQL_DeleteIfExpired(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, Entry{Key: "stale", Value: []byte(`"v"`), ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Put(ctx, Entry{Key: "fresh", Value: []byte(`"v"`), ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	require.NoError(t, s.DeleteIfExpired(ctx, "stale", now))
	require.NoError(t, s.DeleteIfExpired(ctx, "fresh", now))
	require.NoError(t, s.DeleteIfExpired(ctx, "missing", now))

	_, ok, err := s.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must be removed by key")

	_, ok, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok, "unexpired entry must survive a conditional delete")
}

func TestLibSQL_DeleteExpired(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.Put(ctx, Entry{Key: "stale", Value: []byte(`"v"`), ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, s.Put(ctx, Entry{Key: "fresh", Value: []byte(`"v"`), ExpiresAt: now.Add(time.Hour), CreatedAt: now}))

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := s.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, ok)
}
