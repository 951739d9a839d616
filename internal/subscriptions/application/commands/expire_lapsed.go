package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// ExpireLapsedCommand marks active subscriptions that ended before AsOf as
// expired. A zero AsOf means today.
type ExpireLapsedCommand struct {
	OperatorID uuid.UUID
	AsOf       time.Time
}

// ExpireLapsedResult reports the sweep.
type ExpireLapsedResult struct {
	AsOf    time.Time `json:"as_of"`
	Expired int       `json:"expired"`
	UserIDs []string  `json:"user_ids"`
	Message string    `json:"message"`
}

// ExpireLapsedHandler handles the ExpireLapsedCommand.
type ExpireLapsedHandler struct {
	deps Deps
}

// NewExpireLapsedHandler creates a new ExpireLapsedHandler.
func NewExpireLapsedHandler(deps Deps) *ExpireLapsedHandler {
	return &ExpireLapsedHandler{deps: deps.withDefaults()}
}

// Handle executes the ExpireLapsedCommand.
func (h *ExpireLapsedHandler) Handle(ctx context.Context, cmd ExpireLapsedCommand) (*ExpireLapsedResult, error) {
	asOf := h.deps.today()
	if !cmd.AsOf.IsZero() {
		asOf = subscription.DateOf(cmd.AsOf)
	}

	result := &ExpireLapsedResult{AsOf: asOf}
	err := h.deps.transact(ctx, "expire_lapsed", cmd.OperatorID, func(txCtx context.Context) error {
		lapsed, err := h.deps.Subscriptions.FindLapsed(txCtx, asOf)
		if err != nil {
			return err
		}
		for _, s := range lapsed {
			if err := s.Expire(asOf); err != nil {
				return fmt.Errorf("expire %s: %w", s.ID(), err)
			}
			if err := h.deps.Subscriptions.Save(txCtx, s); err != nil {
				return err
			}
			result.UserIDs = append(result.UserIDs, s.UserID())
		}
		result.Expired = len(lapsed)
		return h.deps.saveEvents(txCtx, cmd.OperatorID, lapsed...)
	})
	if err != nil {
		return nil, err
	}

	result.UserIDs = dedupeIDs(result.UserIDs)
	result.Message = fmt.Sprintf("Expired %d subscriptions as of %s.", result.Expired, asOf.Format(subscription.DateLayout))
	h.deps.invalidate(ctx, result.UserIDs...)
	h.deps.Metrics.Counter(observability.MetricSubscriptionsExpired, int64(result.Expired))
	if result.Expired > 0 {
		h.deps.Logger.InfoContext(ctx, "lapsed subscriptions expired", "count", result.Expired, "as_of", asOf.Format(subscription.DateLayout))
	}

	return result, nil
}
