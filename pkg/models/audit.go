package models

import "time"

// InvalidationRecord is one audited cache eviction.
type InvalidationRecord struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Event     string    `json:"event"`
	RecordID  string    `json:"record_id"`
	Existed   bool      `json:"existed"`
	LatencyUs int64     `json:"latency_us"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditConfig controls the invalidation audit log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// AuditQueryOpts specifies filters for querying the invalidation log.
type AuditQueryOpts struct {
	Event    string
	RecordID string
	Since    time.Time
	Limit    int
}

// AuditStat is an aggregated count of invalidations per event per day.
type AuditStat struct {
	Event string `json:"event"`
	Day   string `json:"day"`
	Count int    `json:"count"`
}
