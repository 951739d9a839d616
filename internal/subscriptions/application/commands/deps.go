package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	sharedApplication "github.com/paperlus/ledger/internal/shared/application"
	sharedDomain "github.com/paperlus/ledger/internal/shared/domain"
	"github.com/paperlus/ledger/internal/shared/infrastructure/outbox"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/pkg/observability"
)

// Invalidator drops cached views of the given users.
type Invalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// Deps are the collaborators shared by the ledger command handlers.
// Invalidator, Metrics, Logger and Clock are optional.
type Deps struct {
	Subscriptions subscription.Repository
	Users         user.Repository
	Outbox        outbox.Repository
	UnitOfWork    sharedApplication.UnitOfWork
	Stacker       subscription.Stacker
	Invalidator   Invalidator
	Metrics       observability.Metrics
	Logger        *slog.Logger
	Clock         func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Metrics == nil {
		d.Metrics = observability.NoopMetrics{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return d
}

// transact runs fn in a unit of work, timed and logged as operation on
// behalf of operatorID.
func (d Deps) transact(ctx context.Context, operation string, operatorID uuid.UUID, fn func(txCtx context.Context) error) error {
	logCtx := ctx
	if operatorID != uuid.Nil {
		logCtx = observability.WithOperatorID(ctx, operatorID.String())
	}
	return observability.Observe(logCtx, d.Logger, d.Metrics, operation, func() error {
		return sharedApplication.WithUnitOfWork(ctx, d.UnitOfWork, fn)
	})
}

func (d Deps) today() time.Time {
	return subscription.DateOf(d.Clock())
}

func (d Deps) invalidate(ctx context.Context, userIDs ...string) {
	if d.Invalidator == nil || len(userIDs) == 0 {
		return
	}
	d.Invalidator.Invalidate(ctx, userIDs...)
}

// saveEvents stamps and appends the pending events of subs to the outbox
// inside the transaction carried by txCtx.
func (d Deps) saveEvents(txCtx context.Context, operatorID uuid.UUID, subs ...*subscription.Subscription) error {
	var events []sharedDomain.DomainEvent
	for _, s := range subs {
		events = append(events, s.DomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx, operatorID))

	msgs, err := outbox.FromEvents(events)
	if err != nil {
		return err
	}
	if err := d.Outbox.SaveBatch(txCtx, msgs); err != nil {
		return err
	}
	for _, s := range subs {
		s.ClearDomainEvents()
	}
	return nil
}

// AssignedSubscription describes a subscription a command created.
type AssignedSubscription struct {
	SubscriptionID uuid.UUID           `json:"subscription_id"`
	UserID         string              `json:"user_id"`
	PlanID         string              `json:"plan_id"`
	PlanName       string              `json:"plan_name"`
	StartDate      time.Time           `json:"start_date"`
	EndDate        subscription.Expiry `json:"end_date"`
}

func assigned(s *subscription.Subscription) AssignedSubscription {
	return AssignedSubscription{
		SubscriptionID: s.ID(),
		UserID:         s.UserID(),
		PlanID:         s.PlanID(),
		PlanName:       s.PlanName(),
		StartDate:      s.StartDate(),
		EndDate:        s.EndDate(),
	}
}
