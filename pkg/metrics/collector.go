package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pario-ai/listings/pkg/models"
)

const namespace = "listings"

// statsTimeout bounds the store read made on each scrape.
const statsTimeout = 2 * time.Second

// Collector holds the Prometheus metrics for the service. Each Collector owns
// its registry, so tests can create as many as they like.
//
// All recording methods are safe on a nil *Collector.
type Collector struct {
	registry *prometheus.Registry

	readThroughHits   prometheus.Counter
	readThroughMisses prometheus.Counter
	invalidations     *prometheus.CounterVec
	responses         *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// NewCollector creates a Collector. When reporter is non-nil the store-wide
// counters are exported as gauges read at scrape time.
func NewCollector(reporter *Reporter) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		readThroughHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readthrough_hits_total",
			Help:      "Collection lookups served from the cache store.",
		}),
		readThroughMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readthrough_misses_total",
			Help:      "Collection lookups that queried the repository.",
		}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Collection cache evictions by triggering event.",
		}, []string{"event"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		c.readThroughHits,
		c.readThroughMisses,
		c.invalidations,
		c.responses,
		c.httpRequests,
		c.httpDuration,
		collectors.NewGoCollector(),
	)

	if reporter != nil {
		read := func() models.CacheMetrics {
			ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
			defer cancel()
			return reporter.CacheMetrics(ctx)
		}
		c.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_hits",
				Help:      "Cumulative keyspace hits reported by the cache store.",
			}, func() float64 { return float64(read().Hits) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_misses",
				Help:      "Cumulative keyspace misses reported by the cache store.",
			}, func() float64 { return float64(read().Misses) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_hit_ratio",
				Help:      "Store-wide hit ratio.",
			}, func() float64 { return read().HitRatio }),
		)
	}
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ReadThroughHit() {
	if c != nil {
		c.readThroughHits.Inc()
	}
}

func (c *Collector) ReadThroughMiss() {
	if c != nil {
		c.readThroughMisses.Inc()
	}
}

// Invalidation records one eviction triggered by event.
func (c *Collector) Invalidation(event string) {
	if c != nil {
		c.invalidations.WithLabelValues(event).Inc()
	}
}

// ResponseCache records a response cache lookup; result is "hit" or "miss".
func (c *Collector) ResponseCache(result string) {
	if c != nil {
		c.responses.WithLabelValues(result).Inc()
	}
}

// ObserveHTTP records a finished request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
