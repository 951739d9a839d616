package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database/sqlite"
	"github.com/paperlus/ledger/internal/shared/infrastructure/migrations"
)

func setupSQLiteTestDB(t *testing.T) database.Connection {
	t.Helper()

	conn, err := sqlite.NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Run(context.Background(), conn))
	return conn
}

func TestSQLiteUserRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(setupSQLiteTestDB(t))

	u, err := user.New("U-1138", "Anya Sharma", "anya.s@email.com", "0812-3456-7890")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, u))

	found, err := repo.FindByID(ctx, "U-1138")
	require.NoError(t, err)
	assert.Equal(t, "Anya Sharma", found.CompanyName())
	assert.Equal(t, "0812-3456-7890", found.Phone())

	updated, err := user.New("U-1138", "Anya Sharma-Putri", "anya@email.com", "0812")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, updated))

	found, err = repo.FindByID(ctx, "U-1138")
	require.NoError(t, err)
	assert.Equal(t, "Anya Sharma-Putri", found.CompanyName())
	assert.Equal(t, "anya@email.com", found.Email())
}

func TestSQLiteUserRepository_FindByID_NotFound(t *testing.T) {
	repo := NewSQLiteUserRepository(setupSQLiteTestDB(t))

	_, err := repo.FindByID(context.Background(), "U-0000")

	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestSQLiteUserRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(setupSQLiteTestDB(t))

	for _, id := range []string{"U-8752", "U-1138", "U-2847"} {
		u, err := user.New(id, "Company "+id, "", "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, u))
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "U-1138", users[0].ID())
	assert.Equal(t, "U-2847", users[1].ID())
	assert.Equal(t, "U-8752", users[2].ID())
}
