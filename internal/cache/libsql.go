package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries (expires_at);
`

// LibSQL is the durable Backend, one table in an embedded libsql database.
// Timestamps are stored as Unix milliseconds.
type LibSQL struct {
	db *sql.DB
}

// OpenLibSQL opens (creating if needed) the cache database at path and
// ensures the schema exists.
func OpenLibSQL(path string) (*LibSQL, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache schema: %w", err)
	}
	return &LibSQL{db: db}, nil
}

func (s *LibSQL) Get(ctx context.Context, key string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at, created_at FROM cache_entries WHERE key = ?`, key)

	var (
		value     []byte
		expiresAt int64
		createdAt int64
	)
	if err := row.Scan(&value, &expiresAt, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	return Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: time.UnixMilli(expiresAt).UTC(),
		CreatedAt: time.UnixMilli(createdAt).UTC(),
	}, true, nil
}

func (s *LibSQL) Put(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		e.Key, []byte(e.Value), e.ExpiresAt.UnixMilli(), e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

func (s *LibSQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

func (s *LibSQL) DeleteIfExpired(ctx context.Context, key string, now time.Time) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key = ? AND expires_at <= ?`,
		key, now.UnixMilli()); err != nil {
		return fmt.Errorf("delete stale cache entry: %w", err)
	}
	return nil
}

func (s *LibSQL) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired cache entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count expired deletions: %w", err)
	}
	return int(n), nil
}

// Close releases the underlying database handle.
func (s *LibSQL) Close() error {
	return s.db.Close()
}
