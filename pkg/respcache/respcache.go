// Package respcache is an HTTP middleware that caches whole GET responses in
// the shared cache store for a fixed time.
//
// Entries are never invalidated by record mutations. A cached response can
// therefore lag the repository by up to the configured TTL; that bound is the
// accepted staleness of the public read endpoint.
package respcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/metrics"
	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

// DefaultTTL is the response lifetime.
const DefaultTTL = 15 * time.Minute

// Header reports whether a response was served from the cache ("hit") or
// computed ("miss").
const Header = "X-Listings-Cache"

const keyPrefix = "response:"

// Cache stores rendered responses.
type Cache struct {
	store   store.Store
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Collector
	group   singleflight.Group
	now     func() time.Time
}

// New returns a response cache over s. A non-positive ttl means DefaultTTL.
func New(s store.Store, ttl time.Duration, log *zap.Logger, m *metrics.Collector) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl, log: logging.OrNop(log), metrics: m, now: time.Now}
}

// Key returns the store key identifying r: its method, path and raw query.
func Key(r *http.Request) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.RawQuery))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}

// Middleware serves fresh cached responses without calling next. Only GET
// requests are cached, and only 200 responses are stored.
func (c *Cache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := Key(r)
		if cached, ok := c.lookup(r.Context(), key); ok {
			c.metrics.ResponseCache("hit")
			age := c.now().Sub(cached.StoredAt)
			if age < 0 {
				age = 0
			}
			w.Header().Set("Content-Type", cached.ContentType)
			w.Header().Set("Age", strconv.Itoa(int(age.Seconds())))
			w.Header().Set(Header, "hit")
			w.WriteHeader(cached.Status)
			_, _ = w.Write(cached.Body)
			return
		}
		c.metrics.ResponseCache("miss")

		// Concurrent misses for the same key share one rendering. It runs
		// detached from the first caller's cancellation since others wait on it.
		v, _, _ := c.group.Do(key, func() (any, error) {
			ctx := context.WithoutCancel(r.Context())
			rec := newRecorder()
			next.ServeHTTP(rec, r.WithContext(ctx))
			if rec.status == http.StatusOK {
				c.save(ctx, key, rec)
			}
			return rec, nil
		})
		rec := v.(*recorder)

		for k, vals := range rec.header {
			w.Header()[k] = append([]string(nil), vals...)
		}
		w.Header().Set(Header, "miss")
		w.WriteHeader(rec.status)
		_, _ = w.Write(rec.body.Bytes())
	})
}

func (c *Cache) lookup(ctx context.Context, key string) (models.CachedResponse, bool) {
	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn("response cache lookup failed", zap.String("key", key), zap.Error(err))
		return models.CachedResponse{}, false
	}
	if !ok {
		return models.CachedResponse{}, false
	}
	var cached models.CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		c.log.Warn("discarding undecodable response", zap.String("key", key), zap.Error(err))
		return models.CachedResponse{}, false
	}
	return cached, true
}

func (c *Cache) save(ctx context.Context, key string, rec *recorder) {
	data, err := json.Marshal(models.CachedResponse{
		Status:      rec.status,
		ContentType: rec.header.Get("Content-Type"),
		Body:        rec.body.Bytes(),
		StoredAt:    c.now().UTC(),
	})
	if err != nil {
		c.log.Warn("encode response", zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn("store response", zap.String("key", key), zap.Error(err))
	}
}

// recorder buffers a response so it can be stored and replayed.
type recorder struct {
	header      http.Header
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header), status: http.StatusOK}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *recorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}
