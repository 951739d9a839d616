package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
)

const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

// SQLiteUserRepository implements user.Repository using SQLite.
type SQLiteUserRepository struct {
	conn database.Connection
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(conn database.Connection) *SQLiteUserRepository {
	return &SQLiteUserRepository{conn: conn}
}

// Save inserts the user or updates its contact fields.
func (r *SQLiteUserRepository) Save(ctx context.Context, u *user.User) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO users (id, company_name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			company_name = excluded.company_name,
			email = excluded.email,
			phone = excluded.phone`,
		u.ID(), u.CompanyName(), u.Email(), u.Phone(), time.Now().UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("save user %s: %w", u.ID(), err)
	}
	return nil
}

// FindByID returns the user or user.ErrUserNotFound.
func (r *SQLiteUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	u, err := scanUser(exec.QueryRow(ctx, `
		SELECT id, company_name, email, phone FROM users WHERE id = ?`, id))
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", user.ErrUserNotFound, id)
	}
	return u, err
}

// List returns every user ordered by id.
func (r *SQLiteUserRepository) List(ctx context.Context) ([]*user.User, error) {
	return listUsers(ctx, database.ExecutorFromContext(ctx, r.conn),
		`SELECT id, company_name, email, phone FROM users ORDER BY id`)
}

func listUsers(ctx context.Context, exec database.Executor, query string) ([]*user.User, error) {
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanUser(row database.Row) (*user.User, error) {
	var id, companyName, email, phone string
	if err := row.Scan(&id, &companyName, &email, &phone); err != nil {
		return nil, err
	}
	return user.New(id, companyName, email, phone)
}
