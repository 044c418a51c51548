package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/fasrc/a2rchi-sitemap-ripper/internal/clock/system"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/config"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/dispatcher"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/engine"
	collyfetcher "github.com/fasrc/a2rchi-sitemap-ripper/internal/fetcher/colly"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/logging"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/monitor"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/naming"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/progress"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/progress/sinks"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/readability"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/ripper"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/sitemap"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/state"
	"github.com/fasrc/a2rchi-sitemap-ripper/internal/storage/local"
)

// newRipCmd creates the 'rip' subcommand, which performs one full run against
// the supplied sitemap URL.
func newRipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rip <sitemap-url>",
		Short: "Download every page listed in the sitemap",
		Args:  cobra.ExactArgs(1),
		RunE:  runRip,
	}

	flags := cmd.Flags()
	flags.String("output-dir", "tmp", "directory to save artifacts into")
	flags.Int("limit", 0, "maximum number of pages to download (0 = all)")
	flags.Bool("force", false, "ignore last-modified times and download all pages")
	flags.Int("workers", 5, "number of concurrent download workers")
	flags.Int("retries", 3, "fetch attempts per URL before giving up")
	flags.Bool("readability", false, "apply Readability cleanup to extract main content")

	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	bindings := map[string]string{
		"output.dir":          "output-dir",
		"run.limit":           "limit",
		"run.force":           "force",
		"fetch.workers":       "workers",
		"fetch.retries":       "retries",
		"readability.enabled": "readability",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

func runRip(cmd *cobra.Command, args []string) error {
	sitemapURL := args[0]

	v := viper.New()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	return run(cmd.Context(), sitemapURL, cfg, logger)
}

// run performs one full fetch run: catalog discovery, fan-out, aggregation,
// and state persistence. Only startup failures return an error; per-entry
// failures are surfaced through the status stream and the mapping.
func run(ctx context.Context, sitemapURL string, cfg config.Config, logger *zap.Logger) error {
	runID := uuid.New()
	logger.Info("starting run",
		zap.String("run_id", runID.String()),
		zap.String("sitemap", sitemapURL),
		zap.String("output_dir", cfg.Output.Dir),
		zap.Int("workers", cfg.Fetch.Workers),
		zap.Int("retries", cfg.Fetch.Retries),
		zap.Bool("force", cfg.Run.Force),
		zap.Bool("readability", cfg.Readability.Enabled))

	artifacts, err := local.New(cfg.Output.Dir)
	if err != nil {
		return err
	}

	stateStore := state.New(cfg.Output.Dir)
	lastRun, hasLastRun, err := stateStore.LoadLastRun()
	if err != nil {
		return err
	}
	if hasLastRun {
		logger.Info("previous run found; unchanged pages will be skipped",
			zap.Time("last_run", lastRun))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent:       cfg.Fetch.UserAgent,
		RequestTimeout:  cfg.RequestTimeout(),
		MaxConnsPerHost: cfg.Fetch.MaxConnsPerHost,
	}, logger)

	loader := sitemap.NewLoader(fetcher, cfg.Sitemap.MaxIndexDepth, logger)
	entries, err := loader.Load(ctx, sitemapURL)
	if err != nil {
		return err
	}
	if cfg.Run.Limit > 0 && len(entries) > cfg.Run.Limit {
		entries = entries[:cfg.Run.Limit]
	}
	logger.Info("catalog resolved", zap.Int("entries", len(entries)))

	registry := prometheus.NewRegistry()
	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return err
	}
	hub := progress.NewHub(logger, sinks.NewLogSink(logger), promSink)

	if cfg.Monitor.Addr != "" {
		mon := monitor.New(cfg.Monitor.Addr, registry, logger)
		mon.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mon.Shutdown(shutdownCtx); err != nil {
				logger.Warn("monitor shutdown failed", zap.Error(err))
			}
		}()
	}

	var transformer ripper.Transformer
	if cfg.Readability.Enabled {
		transformer = readability.New(logger)
	}

	clock := system.New()
	eng := engine.New(
		fetcher,
		transformer,
		naming.New(),
		artifacts,
		clock,
		hub,
		progress.UUIDToBytes(runID),
		lastRun,
		hasLastRun,
		engine.Config{
			Force:       cfg.Run.Force,
			Readability: cfg.Readability.Enabled,
			Retries:     cfg.Fetch.Retries,
		},
		logger,
	)
	disp := dispatcher.New(eng, cfg.Fetch.Workers, clock, logger)

	hub.Emit(progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    clock.Now(),
		Stage: progress.StageRunStart,
	})

	summary := disp.Run(ctx, entries)

	// The marker timestamp is captured only after every entry reached a
	// terminal state; a partial run never advances the skip horizon.
	completedAt := clock.Now()
	if err := stateStore.SaveLastRun(completedAt); err != nil {
		logger.Error("failed to persist run marker", zap.Error(err))
	}
	if err := stateStore.WriteMapping(summary.Mapping); err != nil {
		logger.Error("failed to persist url mapping", zap.Error(err))
	}

	note := fmt.Sprintf("saved=%d skipped=%d errors=%d", summary.Saved, summary.Skipped, summary.Failed)
	hub.Emit(progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    completedAt,
		Stage: progress.StageRunDone,
		Dur:   summary.Duration,
		Note:  note,
	})
	if err := hub.Close(ctx); err != nil {
		logger.Warn("progress hub close failed", zap.Error(err))
	}

	logger.Info("run complete",
		zap.Int("total", summary.Total()),
		zap.Int("saved", summary.Saved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Failed),
		zap.Duration("dur", summary.Duration))
	return nil
}
