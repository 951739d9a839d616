package cli

import (
	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
	"github.com/paperlus/ledger/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Subscription Command Handlers
	AssignBulkHandler         *commands.AssignBulkHandler
	AssignIndividualHandler   *commands.AssignIndividualHandler
	UpdateSubscriptionHandler *commands.UpdateSubscriptionHandler
	RevokeAllHandler          *commands.RevokeAllHandler
	ExpireLapsedHandler       *commands.ExpireLapsedHandler

	// Query Handlers
	ListPlansHandler      *queries.ListPlansHandler
	GetCountsHandler      *queries.GetCountsHandler
	GetUserSummaryHandler *queries.GetUserSummaryHandler
	ListUsersHandler      *queries.ListUsersHandler
	SearchUsersHandler    *queries.SearchUsersHandler

	// Health is optional; nil skips dependency checks.
	Health *observability.HealthRegistry

	// OperatorID is stamped on every event the CLI causes.
	OperatorID uuid.UUID
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	assignBulkHandler *commands.AssignBulkHandler,
	assignIndividualHandler *commands.AssignIndividualHandler,
	updateSubscriptionHandler *commands.UpdateSubscriptionHandler,
	revokeAllHandler *commands.RevokeAllHandler,
	expireLapsedHandler *commands.ExpireLapsedHandler,
	listPlansHandler *queries.ListPlansHandler,
	getCountsHandler *queries.GetCountsHandler,
	getUserSummaryHandler *queries.GetUserSummaryHandler,
	listUsersHandler *queries.ListUsersHandler,
	searchUsersHandler *queries.SearchUsersHandler,
) *App {
	return &App{
		AssignBulkHandler:         assignBulkHandler,
		AssignIndividualHandler:   assignIndividualHandler,
		UpdateSubscriptionHandler: updateSubscriptionHandler,
		RevokeAllHandler:          revokeAllHandler,
		ExpireLapsedHandler:       expireLapsedHandler,
		ListPlansHandler:          listPlansHandler,
		GetCountsHandler:          getCountsHandler,
		GetUserSummaryHandler:     getUserSummaryHandler,
		ListUsersHandler:          listUsersHandler,
		SearchUsersHandler:        searchUsersHandler,
	}
}

// SetOperatorID sets the operator recorded on emitted events.
func (a *App) SetOperatorID(id uuid.UUID) {
	a.OperatorID = id
}

// SetHealth sets the registry the health command reports from.
func (a *App) SetHealth(health *observability.HealthRegistry) {
	a.Health = health
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
