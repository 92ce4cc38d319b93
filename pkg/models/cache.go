package models

import "time"

// CacheStats is a raw snapshot of a cache store's cumulative counters.
// Hits and Misses are owned by the store and never reset by this system.
// Entries is -1 when the backend cannot count keys cheaply.
type CacheStats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// CacheMetrics is the derived, point-in-time view reported to callers.
type CacheMetrics struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	HitRatio      float64 `json:"hit_ratio"`
	TotalRequests int64   `json:"total_requests"`
	Error         string  `json:"error,omitempty"`
}

// CachedResponse is a stored HTTP response in the response cache layer.
type CachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}
