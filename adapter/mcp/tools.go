package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/paperlus/ledger/adapter/cli"
)

// ToolDependencies is what the ledger tools, resources and prompts call into.
type ToolDependencies struct {
	App *cli.App
}

// RegisterCLITools exposes the ledger commands as MCP tools.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	switch {
	case srv == nil:
		return errors.New("server is required")
	case deps.App == nil:
		return errors.New("app is required")
	}

	for _, register := range []func(*mcp.Server, ToolDependencies) error{
		registerCoreTools,
		registerSubscriptionTools,
		registerUserTools,
	} {
		if err := register(srv, deps); err != nil {
			return err
		}
	}
	return nil
}
