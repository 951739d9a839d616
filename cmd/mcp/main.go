package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperlus/ledger/internal/app"
	mcpinternal "github.com/paperlus/ledger/internal/mcp"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

func main() {
	bootCfg := observability.DefaultLogConfig()
	bootCfg.Output = os.Stdout
	logger := observability.NewLogger(bootCfg)

	if err := run(logger); err != nil {
		logger.Error("mcp server failed", "error", err)
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
	logCfg := cfg.LogConfig("ledger-mcp")
	logCfg.Output = os.Stdout
	logger = observability.NewLogger(logCfg)

	container, err := app.NewContainer(ctx, cfg, logger, app.WithoutLocalCache())
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	defer container.Close()

	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			return fmt.Errorf("start outbox relay: %w", err)
		}
	}

	ledgerApp := mcpinternal.NewCLIApp(container, cfg.OperatorID)
	err = mcpinternal.Serve(ctx, cfg, ledgerApp, logger)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
