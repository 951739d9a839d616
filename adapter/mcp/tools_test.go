package mcp

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/adapter/cli"
	internalApp "github.com/paperlus/ledger/internal/app"
	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

// newTestApp wires a seeded SQLite ledger whose clock reads 2025-09-01.
func newTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:       "test",
		OperatorID:   uuid.MustParse(config.DefaultOperatorID),
		SQLitePath:   filepath.Join(t.TempDir(), "ledger.db"),
		LifetimeMode: config.LifetimeModeNever,
		SeedDemo:     true,
		CacheTTL:     time.Minute,
		CacheSize:    64,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	today := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	container, err := internalApp.NewContainer(context.Background(), cfg, logger,
		internalApp.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	t.Cleanup(container.Close)

	app := cli.NewApp(
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
	app.SetOperatorID(cfg.OperatorID)
	app.SetHealth(container.Health)
	return app
}

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool, len(tools))
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, name := range []string{
		"ledger.health", "ledger.version", "ledger.plans", "ledger.assign", "ledger.grant",
		"ledger.update", "ledger.revoke", "ledger.expire", "ledger.summary", "ledger.counts",
		"ledger.users", "ledger.search",
	} {
		assert.True(t, names[name], "%s tool should be registered", name)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
	assert.Error(t, RegisterCLITools(srv, ToolDependencies{}))
}

func TestTools_NotInitialized(t *testing.T) {
	ctx := context.Background()
	subs := subscriptionTools{app: &cli.App{}}
	users := userTools{}

	_, err := subs.plans(ctx, struct{}{})
	assert.ErrorIs(t, err, errAppNotInitialized)
	_, err = subs.counts(ctx, struct{}{})
	assert.ErrorIs(t, err, errAppNotInitialized)
	_, err = users.list(ctx, usersInput{})
	assert.ErrorIs(t, err, errAppNotInitialized)
	_, err = health(ctx, nil)
	assert.ErrorIs(t, err, errAppNotInitialized)
}

func TestSubscriptionTools_AssignStacks(t *testing.T) {
	ctx := context.Background()
	tools := subscriptionTools{app: newTestApp(t)}

	result, err := tools.assign(ctx, assignInput{PlanID: "plan-1year", UserIDs: []string{" U-1138 ", "", "U-0000"}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, []string{"U-0000"}, result.Skipped)
	require.Len(t, result.Subscriptions, 1)
	assert.Equal(t, "2026-08-05", result.Subscriptions[0].StartDate.Format(subscription.DateLayout))
	assert.Equal(t, "2027-08-05", result.Subscriptions[0].EndDate.String())

	summary, err := tools.summary(ctx, userIDInput{UserID: "U-1138"})
	require.NoError(t, err)
	assert.Equal(t, "Paper+ One Year (+1)", summary.Summary.Label)
	assert.Equal(t, "2027-08-05", summary.Summary.Ends)
}

func TestSubscriptionTools_AssignValidation(t *testing.T) {
	ctx := context.Background()
	tools := subscriptionTools{app: newTestApp(t)}

	_, err := tools.assign(ctx, assignInput{UserIDs: []string{"U-1138"}})
	assert.Error(t, err)
	_, err = tools.assign(ctx, assignInput{PlanID: "plan-1year", UserIDs: []string{" "}})
	assert.Error(t, err)

	result, err := tools.assign(ctx, assignInput{PlanID: "plan-ghost", UserIDs: []string{"U-1138"}})
	require.NoError(t, err)
	assert.True(t, result.PlanNotFound)
	assert.Zero(t, result.Created)
}

func TestSubscriptionTools_Grant(t *testing.T) {
	ctx := context.Background()
	tools := subscriptionTools{app: newTestApp(t)}

	result, err := tools.grant(ctx, grantInput{Entries: []grantEntry{
		{UserID: "U-5739", PlanID: "plan-trial"},
		{UserID: "U-5739", PlanID: "plan-1year"},
		{UserID: "U-5739", PlanID: "plan-ghost"},
		{UserID: "", PlanID: "plan-1year"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Invalid)
	require.Len(t, result.Skipped, 1)
	require.Len(t, result.Subscriptions, 2)
	assert.Equal(t, "2025-10-01", result.Subscriptions[0].EndDate.String())
	assert.Equal(t, "2026-10-01", result.Subscriptions[1].EndDate.String())

	_, err = tools.grant(ctx, grantInput{})
	assert.Error(t, err)
}

func TestSubscriptionTools_UpdateAndRevoke(t *testing.T) {
	ctx := context.Background()
	tools := subscriptionTools{app: newTestApp(t)}

	_, err := tools.update(ctx, updateInput{UserID: "U-1138", PlanID: "plan-1year"})
	assert.ErrorIs(t, err, subscription.ErrPlanUnchanged)

	updated, err := tools.update(ctx, updateInput{UserID: "U-1138", PlanID: "plan-5year"})
	require.NoError(t, err)
	assert.Equal(t, "Paper+ One Year", updated.PreviousLabel)

	_, err = tools.revoke(ctx, revokeInput{UserID: "U-1138"})
	assert.Error(t, err)

	revoked, err := tools.revoke(ctx, revokeInput{UserID: "U-1138", Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, 2, revoked.Removed)

	counts, err := tools.counts(ctx, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, subscription.Counts{Active: 2, Expired: 1, None: 5, All: 8}, *counts)
}

func TestSubscriptionTools_Expire(t *testing.T) {
	ctx := context.Background()
	tools := subscriptionTools{app: newTestApp(t)}

	_, err := tools.expire(ctx, expireInput{AsOf: "11/01/2025"})
	assert.Error(t, err)

	result, err := tools.expire(ctx, expireInput{AsOf: "2025-11-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"U-9163"}, result.UserIDs)
}

func TestSubscriptionTools_Plans(t *testing.T) {
	tools := subscriptionTools{app: newTestApp(t)}

	plans, err := tools.plans(context.Background(), struct{}{})
	require.NoError(t, err)
	require.Len(t, plans, 5)
	assert.Equal(t, "plan-trial", plans[0].ID)
}

func TestUserTools(t *testing.T) {
	ctx := context.Background()
	tools := userTools{app: newTestApp(t)}

	listing, err := tools.list(ctx, usersInput{Status: "none"})
	require.NoError(t, err)
	assert.Equal(t, 4, listing.Total)
	assert.Equal(t, subscription.Counts{Active: 3, Expired: 1, None: 4, All: 8}, listing.Counts)

	_, err = tools.list(ctx, usersInput{Status: "lapsed"})
	assert.Error(t, err)

	found, err := tools.search(ctx, searchInput{Query: "dailyplanet"})
	require.NoError(t, err)
	require.NotEmpty(t, found)

	_, err = tools.search(ctx, searchInput{})
	assert.Error(t, err)

	found, err = tools.search(ctx, searchInput{Query: "dailyplanet", Field: "phone"})
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = tools.search(ctx, searchInput{Query: "dailyplanet", Field: "email"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "U-4821", found[0].ID)

	_, err = tools.search(ctx, searchInput{Query: "dailyplanet", Field: "address"})
	assert.ErrorIs(t, err, user.ErrInvalidSearchField)
}

func TestHealthTool(t *testing.T) {
	ctx := context.Background()

	overall, err := health(ctx, newTestApp(t))
	require.NoError(t, err)
	assert.Equal(t, observability.HealthStatusHealthy, overall.Status)
	assert.Contains(t, overall.Checks, "database")

	overall, err = health(ctx, &cli.App{})
	require.NoError(t, err)
	assert.Equal(t, observability.HealthStatusHealthy, overall.Status)
}

func TestParseDate(t *testing.T) {
	fallback := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	got, err := parseDate("", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	got, err = parseDate("2025-11-01", fallback)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDate("tomorrow", fallback)
	assert.Error(t, err)
}
