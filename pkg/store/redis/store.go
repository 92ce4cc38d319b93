// Package redis is a cache store backed by a Redis server. Hit and miss
// counters come from the server's own INFO stats, so they are cumulative
// since the server started and cover every client of that server.
package redis

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Options locates the Redis server.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Store wraps a go-redis client.
type Store struct {
	client *goredis.Client
}

// New connects to Redis and verifies the connection with PING.
func New(opts Options) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping redis: %v", store.ErrUnavailable, err)
	}
	return &Store{client: client}, nil
}

// Get returns the value for key; redis.Nil is a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis get: %v", store.ErrUnavailable, err)
	}
	return b, true, nil
}

// Set stores value with ttl.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", store.ErrUnavailable, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis del: %v", store.ErrUnavailable, err)
	}
	return n > 0, nil
}

// Stats reads keyspace_hits and keyspace_misses from INFO stats and the key count from DBSIZE.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	info, err := s.client.Info(ctx, "stats").Result()
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("%w: redis info: %v", store.ErrUnavailable, err)
	}
	stats, err := ParseInfoStats(info)
	if err != nil {
		return models.CacheStats{}, err
	}
	stats.Entries = -1
	if n, err := s.client.DBSize(ctx).Result(); err == nil {
		stats.Entries = n
	}
	return stats, nil
}

// ParseInfoStats extracts keyspace_hits and keyspace_misses from an INFO reply.
// Missing fields read as zero.
func ParseInfoStats(info string) (models.CacheStats, error) {
	var stats models.CacheStats
	sc := bufio.NewScanner(strings.NewReader(info))
	for sc.Scan() {
		name, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
		if !ok {
			continue
		}
		var dst *int64
		switch name {
		case "keyspace_hits":
			dst = &stats.Hits
		case "keyspace_misses":
			dst = &stats.Misses
		default:
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return models.CacheStats{}, fmt.Errorf("parse %s: %w", name, err)
		}
		*dst = n
	}
	return stats, sc.Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}
