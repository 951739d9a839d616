package persistence

import (
	"context"
	"fmt"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
)

// PostgresUserRepository implements user.Repository using PostgreSQL.
type PostgresUserRepository struct {
	conn database.Connection
}

// NewPostgresUserRepository creates a new PostgreSQL user repository.
func NewPostgresUserRepository(conn database.Connection) *PostgresUserRepository {
	return &PostgresUserRepository{conn: conn}
}

// Save inserts the user or updates its contact fields.
func (r *PostgresUserRepository) Save(ctx context.Context, u *user.User) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO users (id, company_name, email, phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone`,
		u.ID(), u.CompanyName(), u.Email(), u.Phone(),
	)
	if err != nil {
		return fmt.Errorf("save user %s: %w", u.ID(), err)
	}
	return nil
}

// FindByID returns the user or user.ErrUserNotFound.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	u, err := scanUser(exec.QueryRow(ctx, `
		SELECT id, company_name, email, phone FROM users WHERE id = $1`, id))
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", user.ErrUserNotFound, id)
	}
	return u, err
}

// List returns every user ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context) ([]*user.User, error) {
	return listUsers(ctx, database.ExecutorFromContext(ctx, r.conn),
		`SELECT id, company_name, email, phone FROM users ORDER BY id`)
}
