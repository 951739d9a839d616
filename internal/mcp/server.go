package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"

	"github.com/paperlus/ledger/adapter/cli"
	mcplocal "github.com/paperlus/ledger/adapter/mcp"
	"github.com/paperlus/ledger/pkg/config"
)

// NewServer builds the MCP server exposing the ledger tools, resources and prompts.
func NewServer(cliApp *cli.App, logger *slog.Logger) (*mcpgo.Server, error) {
	if cliApp == nil {
		return nil, errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	info := mcpgo.ServerInfo{Name: "ledger-mcp", Version: cli.Version}
	info.Capabilities = mcpgo.Capabilities{Tools: true, Resources: true, Prompts: true}
	srv := mcpgo.NewServer(info)

	deps := mcplocal.ToolDependencies{App: cliApp}
	if err := mcplocal.RegisterCLITools(srv, deps); err != nil {
		return nil, fmt.Errorf("register ledger tools: %w", err)
	}
	// Resources and prompts are read-only conveniences; tools alone are enough.
	for name, register := range map[string]func(*mcpgo.Server, mcplocal.ToolDependencies) error{
		"resources": mcplocal.RegisterResources,
		"prompts":   mcplocal.RegisterPrompts,
	} {
		if err := register(srv, deps); err != nil {
			logger.Warn("mcp registration skipped", "kind", name, "error", err)
		}
	}
	return srv, nil
}

// Serve starts an MCP server that mirrors CLI behavior and blocks until the context is canceled.
func Serve(ctx context.Context, cfg *config.Config, cliApp *cli.App, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cliApp == nil {
		return errors.New("CLI app is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(cliApp, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "authenticated", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

// middlewareStack puts bearer-token auth in front of the default stack when
// token is set.
func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	mw := slogFields{logger: logger}
	stack := middleware.DefaultStack(mw)
	if token == "" {
		logger.Warn("MCP_AUTH_TOKEN is empty; ledger tools are reachable without credentials")
		return stack
	}

	operator := &middleware.Identity{ID: "ledger-operator", Name: "ledger operator"}
	auth := middleware.Auth(
		middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{token: operator})),
		middleware.WithAuthLogger(mw),
	)
	return append([]middleware.Middleware{auth}, stack...)
}

// slogFields adapts slog to the middleware logger.
type slogFields struct {
	logger *slog.Logger
}

func (l slogFields) Debug(msg string, fields ...middleware.Field) { l.emit(slog.LevelDebug, msg, fields) }
func (l slogFields) Info(msg string, fields ...middleware.Field)  { l.emit(slog.LevelInfo, msg, fields) }
func (l slogFields) Warn(msg string, fields ...middleware.Field)  { l.emit(slog.LevelWarn, msg, fields) }
func (l slogFields) Error(msg string, fields ...middleware.Field) { l.emit(slog.LevelError, msg, fields) }

func (l slogFields) emit(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]slog.Attr, len(fields))
	for i, f := range fields {
		attrs[i] = slog.Any(f.Key, f.Value)
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
