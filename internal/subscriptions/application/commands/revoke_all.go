package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// RevokeAllCommand removes every subscription a user holds.
type RevokeAllCommand struct {
	OperatorID uuid.UUID
	UserID     string
}

// RevokeAllResult reports what was removed.
type RevokeAllResult struct {
	UserID          string      `json:"user_id"`
	Removed         int         `json:"removed"`
	SubscriptionIDs []uuid.UUID `json:"subscription_ids"`
	Message         string      `json:"message"`
}

// RevokeAllHandler handles the RevokeAllCommand.
type RevokeAllHandler struct {
	deps Deps
}

// NewRevokeAllHandler creates a new RevokeAllHandler.
func NewRevokeAllHandler(deps Deps) *RevokeAllHandler {
	return &RevokeAllHandler{deps: deps.withDefaults()}
}

// Handle executes the RevokeAllCommand. A user with nothing to revoke is not
// an error; the result reports zero removed.
func (h *RevokeAllHandler) Handle(ctx context.Context, cmd RevokeAllCommand) (*RevokeAllResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", subscription.ErrInvalidArgument)
	}

	result := &RevokeAllResult{UserID: userID}
	err := h.deps.transact(ctx, "revoke_all", cmd.OperatorID, func(txCtx context.Context) error {
		if _, err := h.deps.Users.FindByID(txCtx, userID); err != nil {
			return err
		}
		if err := h.deps.Subscriptions.LockUser(txCtx, userID); err != nil {
			return err
		}
		existing, err := h.deps.Subscriptions.FindByUser(txCtx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			return nil
		}

		for _, s := range existing {
			s.Revoke()
			result.SubscriptionIDs = append(result.SubscriptionIDs, s.ID())
		}
		removed, err := h.deps.Subscriptions.DeleteByUser(txCtx, userID)
		if err != nil {
			return err
		}
		result.Removed = removed
		return h.deps.saveEvents(txCtx, cmd.OperatorID, existing...)
	})
	if err != nil {
		return nil, err
	}

	if result.Removed == 0 {
		result.Message = fmt.Sprintf("%s has no subscriptions to revoke.", userID)
		return result, nil
	}

	result.Message = fmt.Sprintf("Revoked %d subscriptions from %s.", result.Removed, userID)
	h.deps.invalidate(ctx, userID)
	h.deps.Metrics.Counter(observability.MetricSubscriptionsRevoked, int64(result.Removed))
	h.deps.Logger.InfoContext(ctx, "subscriptions revoked", "user_id", userID, "removed", result.Removed)

	return result, nil
}
