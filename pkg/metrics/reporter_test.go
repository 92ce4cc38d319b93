package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pario-ai/listings/pkg/models"
)

type fakeStats struct {
	stats models.CacheStats
	err   error
}

func (f fakeStats) Stats(context.Context) (models.CacheStats, error) {
	return f.stats, f.err
}

func TestComputeHitRatio(t *testing.T) {
	tests := []struct {
		hits, misses int64
		want         float64
	}{
		{0, 0, 0},
		{1, 0, 1},
		{0, 5, 0},
		{80, 20, 0.8},
		{2, 1, 0.6667},
		{1, 2, 0.3333},
		{12345, 67890, 0.1539},
	}
	for _, tt := range tests {
		m := Compute(models.CacheStats{Hits: tt.hits, Misses: tt.misses})
		assert.Equal(t, tt.want, m.HitRatio, "hits=%d misses=%d", tt.hits, tt.misses)
		assert.Equal(t, tt.hits+tt.misses, m.TotalRequests)
		assert.GreaterOrEqual(t, m.HitRatio, 0.0)
		assert.LessOrEqual(t, m.HitRatio, 1.0)
	}
}

func TestComputeClampsNegativeCounters(t *testing.T) {
	m := Compute(models.CacheStats{Hits: -3, Misses: 4})
	assert.Equal(t, int64(0), m.Hits)
	assert.Equal(t, int64(4), m.TotalRequests)
	assert.Equal(t, 0.0, m.HitRatio)
}

func TestCacheMetrics(t *testing.T) {
	r := NewReporter(fakeStats{stats: models.CacheStats{Entries: 2, Hits: 3, Misses: 1}}, nil)
	got := r.CacheMetrics(context.Background())
	assert.Equal(t, models.CacheMetrics{Hits: 3, Misses: 1, HitRatio: 0.75, TotalRequests: 4}, got)
}

func TestCacheMetricsStoreUnreachable(t *testing.T) {
	r := NewReporter(fakeStats{err: errors.New("dial tcp: connection refused")}, nil)
	got := r.CacheMetrics(context.Background())

	assert.Equal(t, int64(0), got.Hits)
	assert.Equal(t, int64(0), got.Misses)
	assert.Equal(t, 0.0, got.HitRatio)
	assert.Equal(t, int64(0), got.TotalRequests)
	assert.Contains(t, got.Error, "connection refused")
}
