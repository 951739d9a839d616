package mcp

import (
	"github.com/google/uuid"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container, operatorID uuid.UUID) *cli.App {
	cliApp := cli.NewApp(
		container.AssignBulkHandler,
		container.AssignIndividualHandler,
		container.UpdateSubscriptionHandler,
		container.RevokeAllHandler,
		container.ExpireLapsedHandler,
		container.ListPlansHandler,
		container.GetCountsHandler,
		container.GetUserSummaryHandler,
		container.ListUsersHandler,
		container.SearchUsersHandler,
	)

	cliApp.SetOperatorID(operatorID)
	if container.Health != nil {
		cliApp.SetHealth(container.Health)
	}

	return cliApp
}
