package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/events"
	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/metrics"
	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

// ErrInvalidation is returned when the collection snapshot could not be evicted.
var ErrInvalidation = errors.New("cache invalidation failed")

// Recorder receives a record of every successful eviction.
type Recorder interface {
	Record(ctx context.Context, rec models.InvalidationRecord)
}

// Invalidator evicts the collection snapshot whenever a record is written or
// deleted. It only ever touches CacheKey; response cache entries expire on
// their own.
type Invalidator struct {
	store    store.Store
	log      *zap.Logger
	metrics  *metrics.Collector
	recorder Recorder
}

// NewInvalidator returns an Invalidator for s. m and rec may be nil.
func NewInvalidator(s store.Store, log *zap.Logger, m *metrics.Collector, rec Recorder) *Invalidator {
	return &Invalidator{store: s, log: logging.OrNop(log), metrics: m, recorder: rec}
}

var _ events.Handler = (*Invalidator)(nil)

// Handle implements events.Handler. Deleting an absent key succeeds.
func (i *Invalidator) Handle(ctx context.Context, e events.Event) error {
	switch e.Kind {
	case events.RecordWritten, events.RecordDeleted:
	default:
		return nil
	}

	start := time.Now()
	existed, err := i.store.Delete(ctx, CacheKey)
	if err != nil {
		i.log.Error("invalidate property cache",
			zap.String("event", string(e.Kind)),
			zap.String("record_id", e.RecordID),
			zap.Error(err))
		return fmt.Errorf("%w: delete %s: %w", ErrInvalidation, CacheKey, err)
	}
	latency := time.Since(start)

	i.metrics.Invalidation(string(e.Kind))
	i.log.Info("invalidated property cache",
		zap.String("event", string(e.Kind)),
		zap.String("record_id", e.RecordID),
		zap.Bool("existed", existed),
		zap.Duration("latency", latency))

	if i.recorder != nil {
		i.recorder.Record(ctx, models.InvalidationRecord{
			Key:       CacheKey,
			Event:     string(e.Kind),
			RecordID:  e.RecordID,
			Existed:   existed,
			LatencyUs: latency.Microseconds(),
			CreatedAt: e.At,
		})
	}
	return nil
}
