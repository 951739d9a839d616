package subscription

import (
	"context"
	"time"
)

// Repository persists subscriptions.
type Repository interface {
	// Save inserts a new subscription or updates the status of an existing one.
	Save(ctx context.Context, s *Subscription) error
	FindByUser(ctx context.Context, userID string) ([]*Subscription, error)
	FindAll(ctx context.Context) ([]*Subscription, error)
	// FindLapsed returns active subscriptions with a dated end before asOf.
	FindLapsed(ctx context.Context, asOf time.Time) ([]*Subscription, error)
	// DeleteByUser removes every subscription of userID and reports how many.
	DeleteByUser(ctx context.Context, userID string) (int, error)
	// LockUser serialises writers for one user inside the current transaction.
	LockUser(ctx context.Context, userID string) error
}
