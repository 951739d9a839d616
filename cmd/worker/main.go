package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/paperlus/ledger/internal/app"
	"github.com/paperlus/ledger/internal/shared/infrastructure/outbox"
	"github.com/paperlus/ledger/internal/worker"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

const shutdownGrace = 5 * time.Second

func main() {
	bootCfg := observability.DefaultLogConfig()
	bootCfg.Output = os.Stdout
	logger := observability.NewLogger(bootCfg)

	if err := run(logger); err != nil {
		logger.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logCfg := cfg.LogConfig("ledger-worker")
	logCfg.Output = os.Stdout
	logger = observability.NewLogger(logCfg)
	logger.Info("starting ledger worker", "env", cfg.AppEnv)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer container.Close()

	processor := container.OutboxProcessor
	if cfg.OutboxProcessorEnabled {
		if err := processor.Start(ctx); err != nil {
			return fmt.Errorf("start outbox relay: %w", err)
		}
		defer processor.Stop()
	} else {
		logger.Warn("outbox relay disabled; events stay queued until another worker relays them")
	}

	schedCfg := worker.SchedulerConfig{
		ExpirySchedule:        cfg.ExpirySchedule,
		OutboxCleanupSchedule: cfg.OutboxCleanupSchedule,
		OutboxRetentionDays:   cfg.OutboxRetentionDays,
		OperatorID:            cfg.OperatorID,
	}
	jobs := worker.NewJobs(container.ExpireLapsedHandler, container.OutboxRepo, schedCfg, logger).
		WithMetrics(container.Metrics)
	scheduler := worker.NewScheduler(jobs, logger, schedCfg)
	if _, err := scheduler.Register(); err != nil {
		return err
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.WorkerHealthAddr != "" {
		handler := worker.NewHealthHandler(processor, container.Health, container.MetricsRegistry)
		srv := worker.NewServer(worker.DefaultServerConfig(cfg.WorkerHealthAddr), handler, logger)
		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("health server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	if cfg.OutboxStatsInterval > 0 {
		g.Go(func() error {
			reportStats(gctx, processor, cfg.OutboxStatsInterval, logger)
			return nil
		})
	}

	<-gctx.Done()
	logger.Info("shutting down worker")
	err = g.Wait()
	logger.Info("worker stopped")
	return err
}

func reportStats(ctx context.Context, processor *outbox.Processor, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := processor.GetStats()
			logger.Info("outbox stats",
				"running", s.IsRunning,
				"published", s.PublishedCount,
				"failed", s.FailedCount,
				"dead", s.DeadCount,
				"lag_seconds", s.LagSeconds,
				"last_error", s.LastError,
			)
		}
	}
}
