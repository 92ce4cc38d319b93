package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/audit"
	"github.com/pario-ai/listings/pkg/cache"
	"github.com/pario-ai/listings/pkg/config"
	"github.com/pario-ai/listings/pkg/events"
	"github.com/pario-ai/listings/pkg/logging"
	"github.com/pario-ai/listings/pkg/metrics"
	"github.com/pario-ai/listings/pkg/repository"
	"github.com/pario-ai/listings/pkg/store"
	"github.com/pario-ai/listings/pkg/store/memory"
	"github.com/pario-ai/listings/pkg/store/redis"
	"github.com/pario-ai/listings/pkg/store/sqlite"
)

// app holds the wired components shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *zap.Logger
	store     store.Store
	repo      *repository.SQLiteRepository
	cache     *cache.PropertyCache
	reporter  *metrics.Reporter
	collector *metrics.Collector
	audit     *audit.Logger

	closers []func() error
}

// openApp loads configuration and wires store, repository, event bus,
// invalidation and metrics. The caller must call close.
func openApp(configPath string) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	a.store, err = openStore(cfg)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("init cache store: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	var recorder cache.Recorder
	if cfg.Audit.Enabled {
		a.audit, err = audit.New(cfg.Audit, log)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("init audit: %w", err)
		}
		a.closers = append(a.closers, a.audit.Close)
		recorder = a.audit
	}

	a.reporter = metrics.NewReporter(a.store, log)
	a.collector = metrics.NewCollector(a.reporter)

	bus := events.NewBus()
	bus.Subscribe(cache.NewInvalidator(a.store, log, a.collector, recorder))

	a.repo, err = repository.New(cfg.DBPath, bus)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("init repository: %w", err)
	}
	a.closers = append(a.closers, a.repo.Close)

	a.cache = cache.NewPropertyCache(a.store, a.repo,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(log),
		cache.WithMetrics(a.collector),
	)
	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openStore opens the cache store selected by cfg.Cache.Backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		return sqlite.New(cfg.Cache.DBPath)
	case "memory":
		return memory.New(cfg.Cache.MemoryMaxEntries), nil
	case "redis":
		return redis.New(redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
