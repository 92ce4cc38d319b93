// Package store defines the shared cache store both cache tiers sit on.
//
// A Store is a key/value store with per-key TTLs and cumulative hit/miss
// counters. Individual operations are atomic at the store level; callers do
// not add their own locking around them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pario-ai/listings/pkg/models"
)

// ErrUnavailable marks failures reaching the backing store.
var ErrUnavailable = errors.New("cache store unavailable")

// Store is the cache store contract.
type Store interface {
	// Get returns the value for key. A missing or expired key is (nil, false, nil)
	// and counts as a miss; a present key counts as a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key and reports whether a live entry existed.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)
	// Stats returns the store's cumulative counters.
	Stats(ctx context.Context) (models.CacheStats, error)
	// Close releases resources.
	Close() error
}
