package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobscout/internal/metrics"
	"github.com/amishk599/jobscout/internal/scheduler"
	"github.com/amishk599/jobscout/internal/store"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler daemon",
	Long:  "Runs the pipeline on the configured schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug, logFormat)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	p, err := buildPipeline(ctx, cfg, pipelineOptions{metrics: m}, logger)
	if err != nil {
		return err
	}
	defer p.close()

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"portals", len(p.orch.Tiers()[0].Sources),
		"companies", len(p.orch.Tiers()[1].Sources),
		"storage", cfg.Storage.Type,
		"ai", cfg.AI.Enabled,
	)

	sched := scheduler.New(logger)
	err = sched.Add("ingest", cfg.Schedule, true, func(ctx context.Context) error {
		_, err := p.runner.RunOnce(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if cfg.Storage.PruneSchedule != "" {
		err = sched.Add("prune", cfg.Storage.PruneSchedule, false, func(ctx context.Context) error {
			return prune(ctx, p.store, cfg.Storage.Retention, logger)
		})
		if err != nil {
			return err
		}
	}

	if err := sched.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	logger.Info("goodbye")
	return nil
}

// prune removes reviewed rows and, when retention is set and the store
// supports it, rows older than retention.
func prune(ctx context.Context, s store.Backend, retention time.Duration, logger *slog.Logger) error {
	n, err := s.PruneReviewed(ctx)
	if err != nil {
		return fmt.Errorf("prune reviewed: %w", err)
	}
	logger.Info("pruned reviewed jobs", "count", n)

	c, ok := s.(store.Cleaner)
	if !ok || retention <= 0 {
		return nil
	}
	n, err = c.Cleanup(ctx, retention)
	if err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	logger.Info("removed expired jobs", "count", n, "retention", retention.String())
	return nil
}
