// Package audit keeps a queryable log of collection cache invalidations.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/models"
)

// Logger writes and queries invalidation records in a dedicated SQLite database.
type Logger struct {
	db   *sql.DB
	cfg  models.AuditConfig
	log  *zap.Logger
	now  func() time.Time
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens the audit SQLite database, creates the schema and starts the
// hourly retention loop.
func New(cfg models.AuditConfig, log *zap.Logger) (*Logger, error) {
	db, err := sql.Open("sqlite", cfg.DBPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	l := &Logger{
		db:   db,
		cfg:  cfg,
		log:  logging.OrNop(log),
		now:  time.Now,
		done: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.retentionLoop()

	return l, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS invalidation_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		cache_key   TEXT NOT NULL,
		event       TEXT NOT NULL,
		record_id   TEXT NOT NULL DEFAULT '',
		existed     INTEGER NOT NULL DEFAULT 0,
		latency_us  INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_invalidation_created ON invalidation_log(created_at)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_invalidation_record ON invalidation_log(record_id)`)
	return err
}

// Log inserts a record. A zero CreatedAt is stamped with the current time.
func (l *Logger) Log(ctx context.Context, rec models.InvalidationRecord) error {
	if l == nil || l.db == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = l.now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO invalidation_log (cache_key, event, record_id, existed, latency_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Key, rec.Event, rec.RecordID, rec.Existed, rec.LatencyUs, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert invalidation: %w", err)
	}
	return nil
}

// Record logs rec and swallows the error. Audit failures must not fail the
// mutation that triggered the invalidation.
func (l *Logger) Record(ctx context.Context, rec models.InvalidationRecord) {
	if err := l.Log(ctx, rec); err != nil {
		l.log.Warn("audit invalidation", zap.String("record_id", rec.RecordID), zap.Error(err))
	}
}

// Query returns records matching opts, newest first. Limit defaults to 100.
func (l *Logger) Query(ctx context.Context, opts models.AuditQueryOpts) ([]models.InvalidationRecord, error) {
	q := `SELECT id, cache_key, event, record_id, existed, latency_us, created_at
		FROM invalidation_log WHERE 1=1`
	var args []any

	if opts.Event != "" {
		q += " AND event = ?"
		args = append(args, opts.Event)
	}
	if opts.RecordID != "" {
		q += " AND record_id = ?"
		args = append(args, opts.RecordID)
	}
	if !opts.Since.IsZero() {
		q += " AND created_at >= ?"
		args = append(args, opts.Since.UnixNano())
	}

	q += " ORDER BY created_at DESC, id DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	q += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var records []models.InvalidationRecord
	for rows.Next() {
		var r models.InvalidationRecord
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.Key, &r.Event, &r.RecordID, &r.Existed, &r.LatencyUs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats returns counts grouped by event and UTC day.
func (l *Logger) Stats(ctx context.Context) ([]models.AuditStat, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT event, date(created_at / 1000000000, 'unixepoch') AS day, count(*)
		 FROM invalidation_log GROUP BY event, day ORDER BY day DESC, event`)
	if err != nil {
		return nil, fmt.Errorf("audit stats: %w", err)
	}
	defer rows.Close()

	var stats []models.AuditStat
	for rows.Next() {
		var s models.AuditStat
		var day sql.NullString
		if err := rows.Scan(&s.Event, &day, &s.Count); err != nil {
			return nil, fmt.Errorf("scan audit stat: %w", err)
		}
		s.Day = day.String
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Cleanup deletes records older than the configured retention period.
func (l *Logger) Cleanup(ctx context.Context) (int64, error) {
	cutoff := l.now().AddDate(0, 0, -l.cfg.RetentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM invalidation_log WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("audit cleanup: %w", err)
	}
	return res.RowsAffected()
}

// Close stops the retention goroutine and closes the database.
func (l *Logger) Close() error {
	close(l.done)
	l.wg.Wait()
	return l.db.Close()
}

func (l *Logger) retentionLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if n, err := l.Cleanup(context.Background()); err != nil {
				l.log.Warn("audit retention", zap.Error(err))
			} else if n > 0 {
				l.log.Info("audit retention", zap.Int64("deleted", n))
			}
		}
	}
}
