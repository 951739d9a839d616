package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// IndividualEntry pairs a user with the plan they should receive.
type IndividualEntry struct {
	UserID string
	PlanID string
}

// AssignIndividualCommand grants a possibly different plan to each user.
type AssignIndividualCommand struct {
	OperatorID uuid.UUID
	Entries    []IndividualEntry
}

// Skip reasons reported by AssignIndividual.
const (
	SkipReasonPlanNotFound = "plan not found"
	SkipReasonUserNotFound = "user not found"
)

// SkippedEntry is an entry that produced no subscription.
type SkippedEntry struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
	Reason string `json:"reason"`
}

// AssignIndividualResult reports the outcome of an individual assignment.
type AssignIndividualResult struct {
	Invalid       int                    `json:"invalid"`
	Skipped       []SkippedEntry         `json:"skipped,omitempty"`
	Subscriptions []AssignedSubscription `json:"subscriptions"`
	Message       string                 `json:"message"`
}

// AssignIndividualHandler handles the AssignIndividualCommand.
type AssignIndividualHandler struct {
	deps Deps
}

// NewAssignIndividualHandler creates a new AssignIndividualHandler.
func NewAssignIndividualHandler(deps Deps) *AssignIndividualHandler {
	return &AssignIndividualHandler{deps: deps.withDefaults()}
}

// Handle executes the AssignIndividualCommand. Entries without a user or a
// plan are counted as invalid. A user may appear more than once, and each
// later entry stacks after the ones before it.
func (h *AssignIndividualHandler) Handle(ctx context.Context, cmd AssignIndividualCommand) (*AssignIndividualResult, error) {
	result := &AssignIndividualResult{}
	valid := make([]IndividualEntry, 0, len(cmd.Entries))
	for _, e := range cmd.Entries {
		e.UserID = strings.TrimSpace(e.UserID)
		e.PlanID = strings.TrimSpace(e.PlanID)
		if e.UserID == "" || e.PlanID == "" {
			result.Invalid++
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no entry has both a user and a plan", subscription.ErrInvalidArgument)
	}

	today := h.deps.today()
	err := h.deps.transact(ctx, "assign_individual", cmd.OperatorID, func(txCtx context.Context) error {
		var created []*subscription.Subscription

		for _, e := range valid {
			if _, ok := h.deps.Stacker.Plans.FindPlan(e.PlanID); !ok {
				result.Skipped = append(result.Skipped, SkippedEntry{UserID: e.UserID, PlanID: e.PlanID, Reason: SkipReasonPlanNotFound})
				continue
			}
			if _, err := h.deps.Users.FindByID(txCtx, e.UserID); err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					result.Skipped = append(result.Skipped, SkippedEntry{UserID: e.UserID, PlanID: e.PlanID, Reason: SkipReasonUserNotFound})
					continue
				}
				return err
			}

			s, err := grant(txCtx, h.deps, e.UserID, e.PlanID, today)
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

	result.Message = fmt.Sprintf("Successfully assigned %d subscriptions.", len(result.Subscriptions))

	affected := make([]string, 0, len(result.Subscriptions))
	for _, s := range result.Subscriptions {
		affected = append(affected, s.UserID)
		h.deps.Metrics.Counter(observability.MetricSubscriptionsAssigned, 1,
			observability.T("plan", s.PlanID), observability.T("mode", "individual"))
	}
	h.deps.invalidate(ctx, dedupeIDs(affected)...)
	h.deps.Logger.InfoContext(ctx, "individual assignment completed",
		"created", len(result.Subscriptions), "skipped", len(result.Skipped), "invalid", result.Invalid)

	return result, nil
}
