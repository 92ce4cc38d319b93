// Package metrics derives cache effectiveness figures from store counters
// and exposes them to Prometheus.
package metrics

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/models"
)

// StatsSource reports cumulative hit/miss counters. store.Store satisfies it.
type StatsSource interface {
	Stats(ctx context.Context) (models.CacheStats, error)
}

// Reporter turns a store's raw counters into CacheMetrics.
//
// Counters are store-wide: any other tenant of the same store contributes to
// them, and they are never reset here.
type Reporter struct {
	src StatsSource
	log *zap.Logger
}

// NewReporter returns a Reporter reading from src.
func NewReporter(src StatsSource, log *zap.Logger) *Reporter {
	return &Reporter{src: src, log: logging.OrNop(log)}
}

// CacheMetrics returns the current metrics. It never fails: when the store
// cannot be read, the result is zero-valued with Error set.
func (r *Reporter) CacheMetrics(ctx context.Context) models.CacheMetrics {
	stats, err := r.src.Stats(ctx)
	if err != nil {
		r.log.Warn("read cache stats", zap.Error(err))
		return models.CacheMetrics{Error: err.Error()}
	}
	return Compute(stats)
}

// Compute derives metrics from a stats snapshot. HitRatio is rounded to four
// decimal places and is 0 when no lookups have been recorded.
func Compute(stats models.CacheStats) models.CacheMetrics {
	hits, misses := stats.Hits, stats.Misses
	if hits < 0 {
		hits = 0
	}
	if misses < 0 {
		misses = 0
	}
	total := hits + misses

	var ratio float64
	if total > 0 {
		ratio = round4(float64(hits) / float64(total))
	}
	return models.CacheMetrics{
		Hits:          hits,
		Misses:        misses,
		HitRatio:      ratio,
		TotalRequests: total,
	}
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
