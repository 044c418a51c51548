// Package cmd defines and implements the CLI commands for the sitemap ripper.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitemap-ripper",
		Short: "Bulk-download pages listed in a sitemap XML",
		Long: `sitemap-ripper downloads the raw HTML pages listed in a sitemap (or
sitemap index) with bounded concurrency, per-page retries, and optional
Readability cleanup. Runs are incremental: pages unchanged since the last
successful run are skipped without a network request.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.AddCommand(newRipCmd())

	return cmd
}

// Execute is the main entry point. It wires signal handling so an interrupt
// cancels in-flight fetches.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
