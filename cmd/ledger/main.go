package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/adapter/cli/mcp"
	"github.com/paperlus/ledger/adapter/cli/subscription"
	"github.com/paperlus/ledger/adapter/cli/user"
	"github.com/paperlus/ledger/internal/app"
	mcpinternal "github.com/paperlus/ledger/internal/mcp"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

func main() {
	logger := observability.NewLogger(observability.DefaultLogConfig())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = observability.NewLogger(cfg.LogConfig("ledger"))
	cli.SetLogger(logger)

	closeLedger, err := wireLedger(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize ledger", "error", err)
		os.Exit(1)
	}

	cli.AddCommand(subscription.Cmd)
	cli.AddCommand(user.Cmd)
	cli.AddCommand(mcp.Cmd)
	err = cli.Execute()
	closeLedger()
	if err != nil {
		os.Exit(1)
	}
}

// wireLedger installs the application behind the CLI. In development a
// failing backend leaves the CLI in limited mode, where ledger commands
// report ErrNotInitialized.
func wireLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(), error) {
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("ledger unavailable, running in limited mode", "error", err)
			return func() {}, nil
		}
		return nil, err
	}

	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Warn("outbox relay not started", "error", err)
		}
	}
	cli.SetApp(mcpinternal.NewCLIApp(container, cfg.OperatorID))
	return container.Close, nil
}
