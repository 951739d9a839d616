package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// UpdateSubscriptionCommand moves a user onto another plan.
type UpdateSubscriptionCommand struct {
	OperatorID uuid.UUID
	UserID     string
	PlanID     string
}

// UpdateSubscriptionResult reports the outcome of an update.
type UpdateSubscriptionResult struct {
	UserID        string                `json:"user_id"`
	PlanID        string                `json:"plan_id"`
	PlanNotFound  bool                  `json:"plan_not_found"`
	PreviousLabel string                `json:"previous_label,omitempty"`
	Subscription  *AssignedSubscription `json:"subscription,omitempty"`
	Message       string                `json:"message"`
}

// UpdateSubscriptionHandler handles the UpdateSubscriptionCommand.
type UpdateSubscriptionHandler struct {
	deps Deps
}

// NewUpdateSubscriptionHandler creates a new UpdateSubscriptionHandler.
func NewUpdateSubscriptionHandler(deps Deps) *UpdateSubscriptionHandler {
	return &UpdateSubscriptionHandler{deps: deps.withDefaults()}
}

// Handle executes the UpdateSubscriptionCommand. The new plan is stacked
// after existing coverage; nothing is replaced. Choosing the plan the user's
// primary active subscription already has fails with ErrPlanUnchanged.
func (h *UpdateSubscriptionHandler) Handle(ctx context.Context, cmd UpdateSubscriptionCommand) (*UpdateSubscriptionResult, error) {
	userID := strings.TrimSpace(cmd.UserID)
	planID := strings.TrimSpace(cmd.PlanID)
	if userID == "" || planID == "" {
		return nil, fmt.Errorf("%w: user and plan are required", subscription.ErrInvalidArgument)
	}

	result := &UpdateSubscriptionResult{UserID: userID, PlanID: planID}
	plan, ok := h.deps.Stacker.Plans.FindPlan(planID)
	if !ok {
		result.PlanNotFound = true
		result.Message = fmt.Sprintf("Plan %s not found. Subscription unchanged.", planID)
		return result, nil
	}

	today := h.deps.today()
	err := h.deps.transact(ctx, "update_subscription", cmd.OperatorID, func(txCtx context.Context) error {
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

		summary := subscription.Summarize(existing)
		if summary.Bucket == subscription.BucketActive && summary.Primary.PlanID() == plan.ID {
			return fmt.Errorf("%w: %s already holds %s", subscription.ErrPlanUnchanged, userID, plan.Name)
		}
		result.PreviousLabel = summary.Label

		window, err := h.deps.Stacker.ComputeWindow(userID, plan.ID, existing, today)
		if err != nil {
			return err
		}
		s, err := subscription.New(userID, window)
		if err != nil {
			return err
		}
		if err := h.deps.Subscriptions.Save(txCtx, s); err != nil {
			return err
		}
		if err := h.deps.saveEvents(txCtx, cmd.OperatorID, s); err != nil {
			return err
		}
		a := assigned(s)
		result.Subscription = &a
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Message = fmt.Sprintf("Successfully updated %s to %s.", userID, plan.Name)
	h.deps.invalidate(ctx, userID)
	h.deps.Metrics.Counter(observability.MetricSubscriptionsAssigned, 1,
		observability.T("plan", plan.ID), observability.T("mode", "update"))
	h.deps.Logger.InfoContext(ctx, "subscription updated", "user_id", userID, "plan_id", plan.ID)

	return result, nil
}
