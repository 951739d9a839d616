package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// AssignBulkCommand grants one plan to many users.
type AssignBulkCommand struct {
	OperatorID uuid.UUID
	PlanID     string
	UserIDs    []string
}

// AssignBulkResult reports the outcome of a bulk assignment.
type AssignBulkResult struct {
	PlanID        string                 `json:"plan_id"`
	PlanName      string                 `json:"plan_name"`
	Selected      int                    `json:"selected"`
	Created       int                    `json:"created"`
	PlanNotFound  bool                   `json:"plan_not_found"`
	Skipped       []string               `json:"skipped,omitempty"`
	Subscriptions []AssignedSubscription `json:"subscriptions"`
	Message       string                 `json:"message"`
}

// AssignBulkHandler handles the AssignBulkCommand.
type AssignBulkHandler struct {
	deps Deps
}

// NewAssignBulkHandler creates a new AssignBulkHandler.
func NewAssignBulkHandler(deps Deps) *AssignBulkHandler {
	return &AssignBulkHandler{deps: deps.withDefaults()}
}

// Handle executes the AssignBulkCommand. Each user's new subscription is
// stacked after the coverage they already hold. An unknown plan creates
// nothing and is reported in the result rather than as an error.
func (h *AssignBulkHandler) Handle(ctx context.Context, cmd AssignBulkCommand) (*AssignBulkResult, error) {
	planID := strings.TrimSpace(cmd.PlanID)
	userIDs := dedupeIDs(cmd.UserIDs)
	if planID == "" {
		return nil, fmt.Errorf("%w: plan is required", subscription.ErrInvalidArgument)
	}
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: select at least one user", subscription.ErrInvalidArgument)
	}

	result := &AssignBulkResult{PlanID: planID, Selected: len(userIDs)}

	plan, ok := h.deps.Stacker.Plans.FindPlan(planID)
	if !ok {
		h.deps.Logger.WarnContext(ctx, "bulk assignment with unknown plan", "plan_id", planID, "selected", len(userIDs))
		result.PlanNotFound = true
		result.Message = fmt.Sprintf("Plan %s not found. No subscriptions were added.", planID)
		return result, nil
	}
	result.PlanName = plan.Name

	today := h.deps.today()
	err := h.deps.transact(ctx, "assign_bulk", cmd.OperatorID, func(txCtx context.Context) error {
		created := make([]*subscription.Subscription, 0, len(userIDs))
		for _, userID := range userIDs {
			if _, err := h.deps.Users.FindByID(txCtx, userID); err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					result.Skipped = append(result.Skipped, userID)
					continue
				}
				return err
			}

			s, err := grant(txCtx, h.deps, userID, plan.ID, today)
			if err != nil {
				return err
			}
			created = append(created, s)
		}

		if err := h.deps.saveEvents(txCtx, cmd.OperatorID, created...); err != nil {
			return err
		}
		for _, s := range created {
			result.Subscriptions = append(result.Subscriptions, assigned(s))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Created = len(result.Subscriptions)
	result.Message = fmt.Sprintf("Successfully added %s to %d users.", plan.Name, result.Created)

	affected := make([]string, 0, result.Created)
	for _, s := range result.Subscriptions {
		affected = append(affected, s.UserID)
	}
	h.deps.invalidate(ctx, affected...)
	h.deps.Metrics.Counter(observability.MetricSubscriptionsAssigned, int64(result.Created),
		observability.T("plan", plan.ID), observability.T("mode", "bulk"))
	h.deps.Logger.InfoContext(ctx, "bulk assignment completed",
		"plan_id", plan.ID, "selected", result.Selected, "created", result.Created, "skipped", len(result.Skipped))

	return result, nil
}

// grant locks userID, stacks planID after the user's stored subscriptions and
// saves the new subscription. The read runs in txCtx, so grants made earlier
// in the same transaction are part of the stack.
func grant(txCtx context.Context, deps Deps, userID, planID string, today time.Time) (*subscription.Subscription, error) {
	if err := deps.Subscriptions.LockUser(txCtx, userID); err != nil {
		return nil, err
	}
	existing, err := deps.Subscriptions.FindByUser(txCtx, userID)
	if err != nil {
		return nil, err
	}

	window, err := deps.Stacker.ComputeWindow(userID, planID, existing, today)
	if err != nil {
		return nil, err
	}
	s, err := subscription.New(userID, window)
	if err != nil {
		return nil, err
	}
	if err := deps.Subscriptions.Save(txCtx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// dedupeIDs trims ids, drops blanks and keeps the first occurrence of each.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
