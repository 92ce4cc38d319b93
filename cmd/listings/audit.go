package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pario-ai/listings/pkg/audit"
	"github.com/pario-ai/listings/pkg/config"
	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/models"
)

func newAuditCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and manage the cache invalidation log",
	}

	cmd.AddCommand(
		newAuditSearchCmd(configPath),
		newAuditStatsCmd(configPath),
		newAuditCleanupCmd(configPath),
	)
	return cmd
}

func newAuditSearchCmd(configPath *string) *cobra.Command {
	var (
		event    string
		recordID string
		since    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search invalidation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.AuditQueryOpts{Event: event, RecordID: recordID, Limit: limit}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			records, err := l.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatInvalidations(records))
			return nil
		},
	}

	cmd.Flags().StringVar(&event, "event", "", "filter by event (record_written, record_deleted)")
	cmd.Flags().StringVar(&recordID, "record", "", "filter by property id")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max records to return")
	return cmd
}

func newAuditStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show invalidation counts by event and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := l.Stats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatAuditStats(stats))
			return nil
		},
	}
}

func newAuditCleanupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete invalidation records older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, cleanup, err := openAuditLogger(*configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := l.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d invalidation records.\n", deleted)
			return nil
		},
	}
}

// openAuditLogger opens only the audit database, without wiring the cache store.
func openAuditLogger(configPath string) (*audit.Logger, func(), error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	l, err := audit.New(cfg.Audit, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit db: %w", err)
	}
	return l, func() { _ = l.Close(); _ = log.Sync() }, nil
}

func formatInvalidations(records []models.InvalidationRecord) string {
	if len(records) == 0 {
		return "No invalidation records found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-15s %-36s %-8s %10s\n", "TIME", "EVENT", "RECORD", "EXISTED", "LATENCY")
	b.WriteString(strings.Repeat("-", 93) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-20s %-15s %-36s %-8t %8dus\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Event, r.RecordID, r.Existed, r.LatencyUs)
	}
	return b.String()
}

func formatAuditStats(stats []models.AuditStat) string {
	if len(stats) == 0 {
		return "No invalidation stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s %-12s %8s\n", "EVENT", "DAY", "COUNT")
	b.WriteString(strings.Repeat("-", 38) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-16s %-12s %8d\n", s.Event, s.Day, s.Count)
	}
	return b.String()
}
