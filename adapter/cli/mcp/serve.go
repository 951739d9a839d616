package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/internal/app"
	mcpinternal "github.com/paperlus/ledger/internal/mcp"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

var addr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.MCPAddr = addr
		}

		logger := newServerLogger(cmd.OutOrStdout(), cfg)

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		if cfg.OutboxProcessorEnabled {
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				return err
			}
		}

		cliApp := mcpinternal.NewCLIApp(container, cfg.OperatorID)
		err = mcpinternal.Serve(ctx, cfg, cliApp, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func newServerLogger(out io.Writer, cfg *config.Config) *slog.Logger {
	logCfg := cfg.LogConfig("ledger-mcp")
	logCfg.Output = out
	return observability.NewLogger(logCfg)
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides MCP_ADDR)")
}
