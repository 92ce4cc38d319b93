package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pario-ai/listings/pkg/cache"
)

// clearer is implemented by stores that can drop entries in bulk.
type clearer interface {
	Clear(ctx context.Context, expiredOnly bool) (int64, error)
}

func newCacheCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the cache store",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show raw cache store counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			stats, err := a.store.Stats(context.Background())
			if err != nil {
				return err
			}
			entries := fmt.Sprint(stats.Entries)
			if stats.Entries < 0 {
				entries = "n/a"
			}
			fmt.Printf("Backend: %s\nEntries: %s\nHits:    %d\nMisses:  %d\n",
				a.cfg.Cache.Backend, entries, stats.Hits, stats.Misses)
			return nil
		},
	}

	metricsCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print cache metrics as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(a.reporter.CacheMetrics(context.Background()))
		},
	}

	var expiredOnly bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()
			ctx := context.Background()

			c, ok := a.store.(clearer)
			if !ok {
				// Only the collection snapshot can be addressed by key here;
				// response entries expire on their own.
				existed, err := a.store.Delete(ctx, cache.CacheKey)
				if err != nil {
					return err
				}
				fmt.Printf("Collection cache cleared (existed: %t).\n", existed)
				return nil
			}

			n, err := c.Clear(ctx, expiredOnly)
			if err != nil {
				return err
			}
			if expiredOnly {
				fmt.Printf("Cleared %d expired cache entries.\n", n)
			} else {
				fmt.Printf("Cleared %d cache entries.\n", n)
			}
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only clear expired entries")

	cmd.AddCommand(statsCmd, metricsCmd, clearCmd)
	return cmd
}
