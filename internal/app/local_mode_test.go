package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:       "test",
		OperatorID:   uuid.MustParse(config.DefaultOperatorID),
		SQLitePath:   filepath.Join(t.TempDir(), "ledger.db"),
		LifetimeMode: config.LifetimeModeNever,
		SeedDemo:     true,
		CacheTTL:     time.Minute,
		CacheSize:    64,
	}
}

// setupLocalModeContainer builds a seeded SQLite container whose clock is
// pinned to 2025-09-01.
func setupLocalModeContainer(t *testing.T) (*Container, context.Context) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	today := time.Date(2025, 9, 1, 10, 30, 0, 0, time.UTC)

	ctx := context.Background()
	container, err := NewContainer(ctx, localConfig(t), logger, WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container, ctx
}

func TestLocalModeContainer(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.Nil(t, container.RedisClient)
	assert.NotNil(t, container.InProcessEventBus)
	assert.Same(t, container.InProcessEventBus, container.EventPublisher)
	assert.Equal(t, 5, container.Catalog.Len())

	assert.NotNil(t, container.AssignBulkHandler)
	assert.NotNil(t, container.AssignIndividualHandler)
	assert.NotNil(t, container.UpdateSubscriptionHandler)
	assert.NotNil(t, container.RevokeAllHandler)
	assert.NotNil(t, container.ExpireLapsedHandler)
	assert.NotNil(t, container.ListUsersHandler)

	counts, err := container.GetCountsHandler.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, subscription.Counts{Active: 3, Expired: 1, None: 4, All: 8}, counts)

	health := container.Health.Check(ctx)
	assert.Equal(t, observability.HealthStatusHealthy, health["database"].Status)
	assert.Contains(t, health, "outbox")
	assert.NotContains(t, health, "redis")
}

func TestLocalModeContainer_WithoutLocalCache(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	container, err := NewContainer(ctx, localConfig(t), logger, WithoutLocalCache())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	require.NoError(t, container.Cache.Set(ctx, "counts", []byte(`{}`)))
	_, ok, err := container.Cache.Get(ctx, "counts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalModeContainer_SeedIsIdempotent(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	require.NoError(t, container.SeedDemo(ctx))

	users, err := container.UserRepo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 8)
}

func TestLocalModeStackingWorkflow(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)
	operator := container.Config.OperatorID

	// Warm the counts cache so the assignment has something to invalidate.
	_, err := container.GetCountsHandler.Handle(ctx)
	require.NoError(t, err)

	result, err := container.AssignBulkHandler.Handle(ctx, commands.AssignBulkCommand{
		OperatorID: operator,
		PlanID:     "plan-1year",
		UserIDs:    []string{"U-1138", "U-5739"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, "Successfully added Paper+ One Year to 2 users.", result.Message)

	// U-1138 already runs to 2026-08-05, so the new year starts there.
	summary, err := container.GetUserSummaryHandler.Handle(ctx, queries.GetUserSummaryQuery{UserID: "U-1138"})
	require.NoError(t, err)
	assert.Equal(t, "active", summary.Summary.Status)
	assert.Equal(t, "Paper+ One Year (+1)", summary.Summary.Label)
	assert.Equal(t, "2027-08-05", summary.Summary.Ends)
	assert.Equal(t, 2, summary.Summary.Count)

	// U-5739 had nothing, so coverage starts today.
	summary, err = container.GetUserSummaryHandler.Handle(ctx, queries.GetUserSummaryQuery{UserID: "U-5739"})
	require.NoError(t, err)
	assert.Equal(t, "Paper+ One Year", summary.Summary.Label)
	assert.Equal(t, "2026-09-01", summary.Summary.Ends)

	counts, err := container.GetCountsHandler.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, subscription.Counts{Active: 4, Expired: 1, None: 3, All: 8}, counts)

	// The relay drains the outbox into the in-process bus.
	require.NoError(t, container.OutboxProcessor.ProcessOnce(ctx))
	pending, err := container.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLocalModeIndividualEntriesStackInOneTransaction(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	result, err := container.AssignIndividualHandler.Handle(ctx, commands.AssignIndividualCommand{
		OperatorID: container.Config.OperatorID,
		Entries: []commands.IndividualEntry{
			{UserID: "U-5739", PlanID: "plan-1year"},
			{UserID: "U-5739", PlanID: "plan-trial"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Subscriptions, 2)

	assert.Equal(t, "2026-09-01", result.Subscriptions[0].EndDate.String())
	assert.Equal(t, "2026-09-01", result.Subscriptions[1].StartDate.Format(subscription.DateLayout))
	assert.Equal(t, "2026-10-01", result.Subscriptions[1].EndDate.String())
}

func TestLocalModeRevokeWorkflow(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	result, err := container.RevokeAllHandler.Handle(ctx, commands.RevokeAllCommand{
		OperatorID: container.Config.OperatorID,
		UserID:     "U-1138",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)

	summary, err := container.GetUserSummaryHandler.Handle(ctx, queries.GetUserSummaryQuery{UserID: "U-1138"})
	require.NoError(t, err)
	assert.Equal(t, "none", summary.Summary.Status)
	assert.Empty(t, summary.Summary.Label)

	counts, err := container.GetCountsHandler.Handle(ctx)
	require.NoError(t, err)
	assert.Equal(t, subscription.Counts{Active: 2, Expired: 1, None: 5, All: 8}, counts)
}

func TestLocalModeExpiryWorkflow(t *testing.T) {
	container, ctx := setupLocalModeContainer(t)

	result, err := container.ExpireLapsedHandler.Handle(ctx, commands.ExpireLapsedCommand{
		OperatorID: container.Config.OperatorID,
		AsOf:       time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, []string{"U-9163"}, result.UserIDs)

	listing, err := container.ListUsersHandler.Handle(ctx, queries.ListUsersQuery{Filter: "expired"})
	require.NoError(t, err)
	ids := make([]string, 0, len(listing.Rows))
	for _, row := range listing.Rows {
		ids = append(ids, row.User.ID)
	}
	assert.ElementsMatch(t, []string{"U-2847", "U-9163"}, ids)
	assert.Equal(t, subscription.Counts{Active: 2, Expired: 2, None: 4, All: 8}, listing.Counts)
}
