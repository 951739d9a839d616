package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

const sqliteSelectSubscriptions = `
	SELECT id, user_id, plan_id, plan_name, status, start_date, end_date, created_at
	FROM subscriptions`

// SQLiteSubscriptionRepository implements subscription.Repository using SQLite.
// Dates are stored as YYYY-MM-DD text so they sort and compare as strings.
type SQLiteSubscriptionRepository struct {
	conn database.Connection
}

// NewSQLiteSubscriptionRepository creates a new SQLite subscription repository.
func NewSQLiteSubscriptionRepository(conn database.Connection) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{conn: conn}
}

// Save inserts the subscription or updates its status.
func (r *SQLiteSubscriptionRepository) Save(ctx context.Context, s *subscription.Subscription) error {
	var endDate sql.NullString
	if end, ok := s.EndDate().Date(); ok {
		endDate = sql.NullString{String: end.Format(subscription.DateLayout), Valid: true}
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO subscriptions (id, user_id, plan_id, plan_name, status, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status`,
		s.ID().String(),
		s.UserID(),
		s.PlanID(),
		s.PlanName(),
		s.Status().String(),
		s.StartDate().Format(subscription.DateLayout),
		endDate,
		s.CreatedAt().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("save subscription %s: %w", s.ID(), err)
	}
	return nil
}

// FindByUser returns the user's subscriptions ordered by start date.
func (r *SQLiteSubscriptionRepository) FindByUser(ctx context.Context, userID string) ([]*subscription.Subscription, error) {
	return r.query(ctx, sqliteSelectSubscriptions+`
		WHERE user_id = ?
		ORDER BY start_date, created_at`, userID)
}

// FindAll returns every subscription grouped by user.
func (r *SQLiteSubscriptionRepository) FindAll(ctx context.Context) ([]*subscription.Subscription, error) {
	return r.query(ctx, sqliteSelectSubscriptions+`
		ORDER BY user_id, start_date, created_at`)
}

// FindLapsed returns active subscriptions whose end date is before asOf.
func (r *SQLiteSubscriptionRepository) FindLapsed(ctx context.Context, asOf time.Time) ([]*subscription.Subscription, error) {
	return r.query(ctx, sqliteSelectSubscriptions+`
		WHERE status = 'active'
		  AND end_date IS NOT NULL
		  AND end_date < ?
		ORDER BY end_date, user_id`, subscription.DateOf(asOf).Format(subscription.DateLayout))
}

// DeleteByUser removes all of the user's subscriptions.
func (r *SQLiteSubscriptionRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `DELETE FROM subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions of %s: %w", userID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// LockUser is a no-op: the SQLite connection admits a single writer.
func (r *SQLiteSubscriptionRepository) LockUser(context.Context, string) error {
	return nil
}

func (r *SQLiteSubscriptionRepository) query(ctx context.Context, query string, args ...any) ([]*subscription.Subscription, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*subscription.Subscription
	for rows.Next() {
		s, err := scanSQLiteSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSQLiteSubscription(row database.Row) (*subscription.Subscription, error) {
	var (
		id, userID, planID, planName string
		status, startDate, createdAt string
		endDate                      sql.NullString
	)
	if err := row.Scan(&id, &userID, &planID, &planName, &status, &startDate, &endDate, &createdAt); err != nil {
		return nil, err
	}

	subID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("subscription id %q: %w", id, err)
	}
	st, err := subscription.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	start, err := subscription.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	end := subscription.Never()
	if endDate.Valid {
		d, err := subscription.ParseDate(endDate.String)
		if err != nil {
			return nil, err
		}
		end = subscription.Dated(d)
	}
	created, err := time.Parse(sqliteTimeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("subscription %s created_at: %w", id, err)
	}

	return subscription.Rehydrate(subID, created, userID, planID, planName, st, start, end)
}
