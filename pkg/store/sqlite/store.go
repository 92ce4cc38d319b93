// Package sqlite is the default cache store backend. Entries live in a SQLite
// table with absolute expiry times; hit and miss counters are persisted next
// to them so every process sharing the file sees the same cumulative stats.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

var _ store.Store = (*Store)(nil)

// SweepInterval is how often expired rows are purged in the background.
const SweepInterval = time.Minute

// Store is a TTL key/value cache backed by SQLite.
type Store struct {
	db   *sql.DB
	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

const createCacheTables = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
CREATE TABLE IF NOT EXISTS cache_stats (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	hits INTEGER NOT NULL DEFAULT 0,
	misses INTEGER NOT NULL DEFAULT 0
);
INSERT OR IGNORE INTO cache_stats (id, hits, misses) VALUES (1, 0, 0);
`

// New opens (or creates) the cache database at dbPath and starts the expiry sweeper.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTables); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	s := &Store{db: db, now: time.Now, done: make(chan struct{})}
	s.wg.Add(1)
	go s.sweepLoop()
	return s, nil
}

// Get retrieves a live value. Expired rows are removed on access.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.count(ctx, "misses")
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("%w: cache get: %v", store.ErrUnavailable, err)
	}

	if s.now().UnixMilli() >= expiresAt {
		_, _ = s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE key = ? AND expires_at = ?`, key, expiresAt)
		s.count(ctx, "misses")
		return nil, false, nil
	}

	s.count(ctx, "hits")
	return value, true, nil
}

// count bumps a persisted counter. Telemetry is best-effort and never fails a lookup.
func (s *Store) count(ctx context.Context, column string) {
	_, _ = s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE cache_stats SET %s = %s + 1 WHERE id = 1`, column, column))
}

// Set stores value under key until now+ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, created_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		key, value, now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: cache set: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM cache_entries WHERE key = ? RETURNING expires_at`, key,
	).Scan(&expiresAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: cache delete: %v", store.ErrUnavailable, err)
	}
	return s.now().UnixMilli() < expiresAt, nil
}

// Stats returns the persisted counters and the number of live entries.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	var stats models.CacheStats
	err := s.db.QueryRowContext(ctx,
		`SELECT hits, misses, (SELECT COUNT(*) FROM cache_entries WHERE expires_at > ?)
		 FROM cache_stats WHERE id = 1`,
		s.now().UnixMilli(),
	).Scan(&stats.Hits, &stats.Misses, &stats.Entries)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("%w: cache stats: %v", store.ErrUnavailable, err)
	}
	return stats, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries are removed.
// Counters are left untouched.
func (s *Store) Clear(ctx context.Context, expiredOnly bool) (int64, error) {
	var res sql.Result
	var err error
	if expiredOnly {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixMilli())
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	}
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the sweeper and releases the database connection.
func (s *Store) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.db.Close()
}

func (s *Store) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_, _ = s.Clear(context.Background(), true)
		}
	}
}
