package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// Execute runs the root command until it returns or SIGINT/SIGTERM arrives.
func Execute(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "peoplenet",
		Short:         "People, relationships and their network",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML config file")
	flags.String("storage", "sqlite", "storage driver: memory, sqlite or postgres")
	flags.String("sqlite-path", "./peoplenet.db", "sqlite database file")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("seed-file", "", "YAML dataset replacing the built-in seed data")

	root.AddCommand(newServeCmd(), newSeedCmd(), newMCPCmd())
	return root
}
