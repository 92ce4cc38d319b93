// Package memory is an in-process cache store built on an expirable LRU.
// It is meant for single-instance deployments and tests.
package memory

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

var _ store.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Store is a bounded in-memory cache with per-key TTLs.
type Store struct {
	lru    *expirable.LRU[string, entry]
	now    func() time.Time
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Store holding at most maxEntries keys; least recently used
// keys are evicted first once full.
func New(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	// TTLs are per key, so the LRU itself never expires entries.
	return &Store{
		lru: expirable.NewLRU[string, entry](maxEntries, nil, 0),
		now: time.Now,
	}
}

// Get returns a live value, dropping it if it has expired.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.lru.Get(key)
	if ok && s.now().Before(e.expiresAt) {
		s.hits.Add(1)
		return e.value, true, nil
	}
	if ok {
		s.lru.Remove(key)
	}
	s.misses.Add(1)
	return nil, false, nil
}

// Set stores a copy of value until now+ttl.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.lru.Add(key, entry{value: v, expiresAt: s.now().Add(ttl)})
	return nil
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	e, ok := s.lru.Peek(key)
	if !ok {
		return false, nil
	}
	s.lru.Remove(key)
	return s.now().Before(e.expiresAt), nil
}

// Stats returns the in-process counters. Entries may include expired keys not yet touched.
func (s *Store) Stats(_ context.Context) (models.CacheStats, error) {
	return models.CacheStats{
		Entries: int64(s.lru.Len()),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}, nil
}

// Close drops all entries.
func (s *Store) Close() error {
	s.lru.Purge()
	return nil
}
