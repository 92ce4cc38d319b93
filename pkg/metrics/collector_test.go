package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/listings/pkg/models"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector(nil)
	c.ReadThroughHit()
	c.ReadThroughMiss()
	c.ReadThroughMiss()
	c.Invalidation("record_deleted")
	c.ResponseCache("hit")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.readThroughHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.readThroughMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.invalidations.WithLabelValues("record_deleted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.responses.WithLabelValues("hit")))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ReadThroughHit()
	c.ReadThroughMiss()
	c.Invalidation("record_written")
	c.ResponseCache("miss")
	c.ObserveHTTP("GET", "/properties/", 200, time.Millisecond)
}

func TestCollectorExportsStoreGauges(t *testing.T) {
	r := NewReporter(fakeStats{stats: models.CacheStats{Hits: 8, Misses: 2}}, nil)
	c := NewCollector(r)
	c.ObserveHTTP("GET", "/properties/", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "listings_store_hits 8")
	assert.Contains(t, text, "listings_store_hit_ratio 0.8")
	assert.Contains(t, text, `listings_http_requests_total{method="GET",route="/properties/",status="200"} 1`)
}
