package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

func TestAssignIndividualHandler_Handle(t *testing.T) {
	t.Run("later entries stack within the batch", func(t *testing.T) {
		f := newFixture(t, "2025-01-01")
		handler := NewAssignIndividualHandler(f.deps)

		f.expectCommit()
		f.knownUser(t, "U-1")
		f.knownUser(t, "U-2")
		f.unknownUser("U-ghost")
		f.subs.On("LockUser", f.txCtx, mock.Anything).Return(nil)
		// The repository sees rows saved earlier in the same transaction.
		var saved []*subscription.Subscription
		savedFor := func(userID string) []*subscription.Subscription {
			var out []*subscription.Subscription
			for _, s := range saved {
				if s.UserID() == userID {
					out = append(out, s)
				}
			}
			return out
		}
		f.subs.On("FindByUser", f.txCtx, "U-1").Return(savedFor, nil)
		f.subs.On("FindByUser", f.txCtx, "U-2").Return([]*subscription.Subscription{
			stored(t, "U-2", "plan-trial", "Paper+ Trial", subscription.StatusExpired, "2024-06-01", "2024-07-01"),
		}, nil)
		f.subs.On("Save", f.txCtx, mock.AnythingOfType("*subscription.Subscription")).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*subscription.Subscription)) }).
			Return(nil).Times(3)
		f.outbox.On("SaveBatch", f.txCtx, batchOf(3, subscription.RoutingKeyAssigned)).Return(nil)

		result, err := handler.Handle(f.ctx, AssignIndividualCommand{Entries: []IndividualEntry{
			{UserID: "U-1", PlanID: "plan-1year"},
			{UserID: "U-2", PlanID: "plan-onboarding"},
			{UserID: "U-1", PlanID: "plan-trial"},
			{UserID: "U-1", PlanID: "plan-404"},
			{UserID: "U-ghost", PlanID: "plan-trial"},
			{UserID: "U-3", PlanID: ""},
		}})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Invalid)
		assert.Equal(t, []SkippedEntry{
			{UserID: "U-1", PlanID: "plan-404", Reason: SkipReasonPlanNotFound},
			{UserID: "U-ghost", PlanID: "plan-trial", Reason: SkipReasonUserNotFound},
		}, result.Skipped)
		assert.Equal(t, "Successfully assigned 3 subscriptions.", result.Message)

		require.Len(t, result.Subscriptions, 3)
		assert.Equal(t, "2026-01-01", result.Subscriptions[0].EndDate.String())
		assert.Equal(t, "2025-01-01", result.Subscriptions[1].StartDate.Format(subscription.DateLayout))
		assert.Equal(t, "2025-04-01", result.Subscriptions[1].EndDate.String())
		assert.Equal(t, "2026-01-01", result.Subscriptions[2].StartDate.Format(subscription.DateLayout))
		assert.Equal(t, "2026-01-31", result.Subscriptions[2].EndDate.String())

		assert.Equal(t, []string{"U-1", "U-2"}, f.invalidator.ids)
		f.assertExpectations(t)
	})

	t.Run("fails when no entry is complete", func(t *testing.T) {
		f := newFixture(t, "2025-01-01")
		handler := NewAssignIndividualHandler(f.deps)

		_, err := handler.Handle(f.ctx, AssignIndividualCommand{Entries: []IndividualEntry{
			{UserID: "U-1"},
			{PlanID: "plan-trial"},
		}})

		assert.ErrorIs(t, err, subscription.ErrInvalidArgument)
		f.uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("all entries skipped commits nothing new", func(t *testing.T) {
		f := newFixture(t, "2025-01-01")
		handler := NewAssignIndividualHandler(f.deps)
		f.expectCommit()

		result, err := handler.Handle(f.ctx, AssignIndividualCommand{Entries: []IndividualEntry{
			{UserID: "U-1", PlanID: "plan-404"},
		}})

		require.NoError(t, err)
		assert.Empty(t, result.Subscriptions)
		assert.Len(t, result.Skipped, 1)
		f.outbox.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		assert.Empty(t, f.invalidator.ids)
	})
}
