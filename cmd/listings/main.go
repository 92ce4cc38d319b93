package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "listings",
		Short:         "Property listings API with a two-tier cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "listings.yaml", "path to config file (defaults are used if it does not exist)")

	root.AddCommand(
		newServeCmd(&configPath),
		newPropertyCmd(&configPath),
		newCacheCmd(&configPath),
		newAuditCmd(&configPath),
		newMCPCmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
