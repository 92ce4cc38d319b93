package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pario-ai/listings/pkg/respcache"
	"github.com/pario-ai/listings/pkg/server"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the listings HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			srv := server.New(a.cfg, server.Deps{
				Repo:      a.repo,
				Cache:     a.cache,
				Reporter:  a.reporter,
				Collector: a.collector,
				Responses: respcache.New(a.store, a.cfg.Cache.ResponseTTL, a.log, a.collector),
				Logger:    a.log,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.log.Info("starting listings api",
				zap.String("config", *configPath),
				zap.String("cache_backend", a.cfg.Cache.Backend),
				zap.Duration("cache_ttl", a.cfg.Cache.TTL),
				zap.Duration("response_ttl", a.cfg.Cache.ResponseTTL))
			return srv.ListenAndServe(ctx)
		},
	}
}
