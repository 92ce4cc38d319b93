package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/listings/pkg/cache"
	"github.com/pario-ai/listings/pkg/config"
	"github.com/pario-ai/listings/pkg/models"
	"github.com/pario-ai/listings/pkg/store/memory"
	"github.com/pario-ai/listings/pkg/store/sqlite"
)

func writeConfig(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "listings.yaml")
	body := fmt.Sprintf(`
db_path: %s
log:
  level: error
cache:
  backend: %s
  db_path: %s
audit:
  enabled: true
  db_path: %s
  retention_days: 7
`, filepath.Join(dir, "listings.db"), backend, filepath.Join(dir, "cache.db"), filepath.Join(dir, "audit.db"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()

	cfg.Cache.Backend = "memory"
	s, err := openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
	_ = s.Close()

	cfg.Cache.Backend = "sqlite"
	cfg.Cache.DBPath = filepath.Join(t.TempDir(), "cache.db")
	s, err = openStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	_ = s.Close()

	cfg.Cache.Backend = "memcached"
	_, err = openStore(cfg)
	assert.Error(t, err)
}

func TestOpenAppEndToEnd(t *testing.T) {
	for _, backend := range []string{"sqlite", "memory"} {
		t.Run(backend, func(t *testing.T) {
			a, err := openApp(writeConfig(t, backend))
			require.NoError(t, err)
			defer func() { assert.NoError(t, a.close()) }()
			ctx := context.Background()

			_, err = a.cache.AllProperties(ctx)
			require.NoError(t, err)
			_, ok, err := a.store.Get(ctx, cache.CacheKey)
			require.NoError(t, err)
			require.True(t, ok)

			p, err := a.repo.Create(ctx, models.PropertyInput{Title: "P1", Price: 10000000, Location: "City1"})
			require.NoError(t, err)
			_, ok, err = a.store.Get(ctx, cache.CacheKey)
			require.NoError(t, err)
			assert.False(t, ok)

			records, err := a.audit.Query(ctx, models.AuditQueryOpts{RecordID: p.ID})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.True(t, records[0].Existed)

			m := a.reporter.CacheMetrics(ctx)
			assert.Empty(t, m.Error)
			assert.Equal(t, m.Hits+m.Misses, m.TotalRequests)
		})
	}
}

func TestOpenAppMissingConfigUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	a, err := openApp(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Listen, a.cfg.Listen)
	assert.NoError(t, a.close())
}

func TestFormatProperties(t *testing.T) {
	assert.Equal(t, "No properties found.\n", formatProperties(nil))
	out := formatProperties([]models.Property{{ID: "x", Title: "Loft", Price: 12345, Location: "Berlin"}})
	assert.Contains(t, out, "123.45")
	assert.Contains(t, out, "Loft")
}
