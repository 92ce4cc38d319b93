package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pario-ai/listings/pkg/mcp"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve listings and cache metrics as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var auditSrc mcp.InvalidationSource
			if a.audit != nil {
				auditSrc = a.audit
			}
			srv := mcp.New(a.cache, a.reporter, auditSrc, a.log, version)
			return srv.Run(ctx, os.Stdin, os.Stdout)
		},
	}
}
