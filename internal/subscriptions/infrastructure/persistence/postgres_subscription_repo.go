package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

const postgresSelectSubscriptions = `
	SELECT id, user_id, plan_id, plan_name, status, start_date, end_date, created_at
	FROM subscriptions`

// PostgresSubscriptionRepository implements subscription.Repository using PostgreSQL.
type PostgresSubscriptionRepository struct {
	conn database.Connection
}

// NewPostgresSubscriptionRepository creates a new PostgreSQL subscription repository.
func NewPostgresSubscriptionRepository(conn database.Connection) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{conn: conn}
}

// Save inserts the subscription or updates its status.
func (r *PostgresSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_id, plan_name, status, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`,
		s.ID(),
		s.UserID(),
		s.PlanID(),
		s.PlanName(),
		s.Status().String(),
		s.StartDate(),
		s.EndDate().Ptr(),
		s.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", s.ID(), err)
	}
	return nil
}

// FindByUser returns the user's subscriptions ordered by start date.
func (r *PostgresSubscriptionRepository) FindByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return r.query(ctx, postgresSelectSubscriptions+`
		WHERE user_id = $1
		ORDER BY start_date, created_at`, userID)
}

// FindAll returns every subscription grouped by user.
func (r *PostgresSubscriptionRepository) FindAll(ctx context.Context) ([]*subscription.Subscription, error) {
	return r.query(ctx, postgresSelectSubscriptions+`
		ORDER BY user_id, start_date, created_at`)
}

// FindLapsed returns active subscriptions whose end date is before asOf.
func (r *PostgresSubscriptionRepository) FindLapsed(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return r.query(ctx, postgresSelectSubscriptions+`
		WHERE status = 'active'
		  AND end_date IS NOT NULL
		  AND end_date < $1
		ORDER BY end_date, user_id`, subscription.DateOf(asOf))
}

// DeleteByUser removes all of the user's subscriptions.
func (r *PostgresSubscriptionRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions of %s: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// LockUser takes a transaction-scoped advisory lock on the user id. Outside a
// transaction the lock is released as soon as the statement finishes.
func (r *PostgresSubscriptionRepository) LockUser(ctx context.Context, userID string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	if _, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("lock user %s: %w", userID, err)
	}
	return nil
}

func (r *PostgresSubscriptionRepository) query(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		var (
			id                       uuid.UUID
			userID, planID, planName string
			status                   string
			startDate, createdAt     time.Time
			endDate                  *time.Time
		)
		if err := rows.Scan(&id, &userID, &planID, &planName, &status, &startDate, &endDate, &createdAt); err != nil {
			return nil, err
		}
		st, err := subscription.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		s, err := subscription.Rehydrate(id, createdAt, userID, planID, planName, st, startDate, subscription.ExpiryFromPtr(endDate))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
