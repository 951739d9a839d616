package mcp

import (
	"context"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/pkg/observability"
)

func health(ctx context.Context, app *cli.App) (*observability.OverallHealth, error) {
	if app == nil {
		return nil, errAppNotInitialized
	}
	if app.Health == nil {
		return &observability.OverallHealth{
			Status:    observability.HealthStatusHealthy,
			Timestamp: time.Now(),
		}, nil
	}
	overall := app.Health.GetOverallHealth(ctx)
	return &overall, nil
}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("ledger.health").
		Description("Check ledger dependencies (database, cache, outbox)").
		Handler(func(ctx context.Context, input struct{}) (*observability.OverallHealth, error) {
			return health(ctx, app)
		})

	srv.Tool("ledger.version").
		Description("Get ledger version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{"version": cli.Version}, nil
		})

	return nil
}
