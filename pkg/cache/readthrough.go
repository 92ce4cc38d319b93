// Package cache implements the read-through collection cache and the
// invalidation handler that keeps it consistent with the repository.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/metrics"
	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

// CacheKey is the store key holding the full property collection.
const CacheKey = "allproperties"

// DefaultTTL is the collection snapshot lifetime.
const DefaultTTL = time.Hour

// Lister is the repository read used on a miss.
type Lister interface {
	ListAll(ctx context.Context) ([]models.Property, error)
}

// PropertyCache serves the property collection from the store, falling back
// to the repository on a miss.
//
// There is no per-key lock: concurrent misses each query the repository and
// the last writer wins, which is harmless because every writer stores the
// same committed state.
type PropertyCache struct {
	store   store.Store
	repo    Lister
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Collector
}

// Option configures a PropertyCache.
type Option func(*PropertyCache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *PropertyCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *PropertyCache) { c.log = logging.OrNop(l) }
}

// WithMetrics records hits and misses on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *PropertyCache) { c.metrics = m }
}

// NewPropertyCache returns a read-through cache over repo backed by s.
func NewPropertyCache(s store.Store, repo Lister, opts ...Option) *PropertyCache {
	c := &PropertyCache{
		store: s,
		repo:  repo,
		ttl:   DefaultTTL,
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// AllProperties returns every property, newest first.
//
// A hit returns the cached snapshot without touching the repository and
// without refreshing its TTL. A miss queries the repository exactly once and
// stores the result. Store failures are logged and treated as misses;
// repository failures are returned.
func (c *PropertyCache) AllProperties(ctx context.Context) ([]models.Property, error) {
	if props, ok := c.lookup(ctx); ok {
		c.metrics.ReadThroughHit()
		return props, nil
	}
	c.metrics.ReadThroughMiss()

	props, err := c.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch properties: %w", err)
	}

	data, err := json.Marshal(props)
	if err != nil {
		c.log.Warn("encode property snapshot", zap.Error(err))
		return props, nil
	}
	if err := c.store.Set(ctx, CacheKey, data, c.ttl); err != nil {
		c.log.Warn("store property snapshot", zap.String("key", CacheKey), zap.Error(err))
	}
	return props, nil
}

func (c *PropertyCache) lookup(ctx context.Context) ([]models.Property, bool) {
	data, ok, err := c.store.Get(ctx, CacheKey)
	if err != nil {
		c.log.Warn("cache lookup failed, reading through", zap.String("key", CacheKey), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var props []models.Property
	if err := json.Unmarshal(data, &props); err != nil {
		c.log.Warn("discarding undecodable snapshot", zap.String("key", CacheKey), zap.Error(err))
		return nil, false
	}
	if props == nil {
		props = []models.Property{}
	}
	return props, true
}
