package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pario-ai/listings/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config holds all listings configuration.
type Config struct {
	Listen    string             `yaml:"listen"`
	DBPath    string             `yaml:"db_path"`
	Log       LogConfig          `yaml:"log"`
	Cache     CacheConfig        `yaml:"cache"`
	RateLimit RateLimitConfig    `yaml:"rate_limit"`
	Audit     models.AuditConfig `yaml:"audit"`
}

// LogConfig controls the zap logger.
// Format is "json" (default) or "console".
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// CacheConfig controls the shared cache store and both cache tiers.
// Backend is "sqlite" (default), "memory" or "redis".
type CacheConfig struct {
	Backend          string        `yaml:"backend"`
	DBPath           string        `yaml:"db_path"`
	TTL              time.Duration `yaml:"ttl"`
	ResponseTTL      time.Duration `yaml:"response_ttl"`
	MemoryMaxEntries int           `yaml:"memory_max_entries"`
	Redis            RedisConfig   `yaml:"redis"`
}

// RedisConfig locates the redis cache backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// RateLimitConfig controls the token-bucket limiter in front of the HTTP API.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "listings.db",
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Backend:          "sqlite",
			DBPath:           "listings-cache.db",
			TTL:              time.Hour,
			ResponseTTL:      15 * time.Minute,
			MemoryMaxEntries: 10000,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     100,
			Burst:   200,
		},
		Audit: models.AuditConfig{
			Enabled:       true,
			DBPath:        "listings-audit.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate rejects configurations the cache layers cannot honour.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "sqlite", "memory", "redis":
	default:
		return fmt.Errorf("invalid config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("invalid config: cache.ttl must be positive")
	}
	if c.Cache.ResponseTTL <= 0 {
		return fmt.Errorf("invalid config: cache.response_ttl must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}
