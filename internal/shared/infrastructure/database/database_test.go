package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	tests := []struct {
		url  string
		want Driver
	}{
		{"", DriverSQLite},
		{"postgres://ledger@localhost/ledger", DriverPostgres},
		{"postgresql://ledger@localhost/ledger", DriverPostgres},
		{"sqlite:///tmp/ledger.db", DriverSQLite},
		{"file:ledger.db", DriverSQLite},
		{"/var/lib/ledger.sqlite3", DriverSQLite},
		{"host=localhost dbname=ledger", DriverPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDriver(tt.url))
		})
	}
}

func TestSQLitePathFromURL(t *testing.T) {
	assert.Equal(t, "/tmp/ledger.db", SQLitePathFromURL("sqlite:///tmp/ledger.db"))
	assert.Equal(t, "ledger.db", SQLitePathFromURL("file:ledger.db"))
	assert.Equal(t, "data/ledger.db", SQLitePathFromURL("data/ledger.db"))
	assert.Empty(t, SQLitePathFromURL("postgres://localhost/ledger"))
}

func TestConfig_ResolvedDriver(t *testing.T) {
	assert.Equal(t, DriverSQLite, Config{}.ResolvedDriver())
	assert.Equal(t, DriverPostgres, Config{Driver: "auto", URL: "postgres://x"}.ResolvedDriver())
	assert.Equal(t, DriverSQLite, Config{Driver: DriverSQLite, URL: "postgres://x"}.ResolvedDriver())
}

func TestNewConnection_UnsupportedDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), Config{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(sql.ErrNoRows))
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("find user: %w", ErrNoRows)))
	assert.False(t, IsNoRows(nil))
	assert.False(t, IsNoRows(errors.New("boom")))
}

func TestUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewUnitOfWork(nil)

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

type fakeTx struct {
	committed, rolledBack int
}

func (f *fakeTx) Exec(context.Context, string, ...any) (Result, error) { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) Row         { return nil }
func (f *fakeTx) Query(context.Context, string, ...any) (Rows, error)  { return nil, nil }
func (f *fakeTx) Commit(context.Context) error                         { f.committed++; return nil }
func (f *fakeTx) Rollback(context.Context) error                       { f.rolledBack++; return nil }

type fakeConn struct {
	fakeTx
	begun []*fakeTx
}

func (c *fakeConn) BeginTx(context.Context) (Transaction, error) {
	tx := &fakeTx{}
	c.begun = append(c.begun, tx)
	return tx, nil
}
func (c *fakeConn) Close() error                 { return nil }
func (c *fakeConn) Ping(context.Context) error   { return nil }
func (c *fakeConn) Driver() Driver               { return DriverSQLite }

func TestUnitOfWork_NestedScopesShareOneTransaction(t *testing.T) {
	conn := &fakeConn{}
	uow := NewUnitOfWork(conn)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	require.Len(t, conn.begun, 1)

	tx, ok := TxFromContext(inner)
	require.True(t, ok)
	assert.Same(t, conn.begun[0], tx)
	assert.Same(t, conn.begun[0], ExecutorFromContext(inner, conn))

	require.NoError(t, uow.Rollback(inner))
	require.NoError(t, uow.Commit(inner))
	assert.Zero(t, conn.begun[0].rolledBack)
	assert.Zero(t, conn.begun[0].committed)

	require.NoError(t, uow.Commit(outer))
	assert.Equal(t, 1, conn.begun[0].committed)
}

func TestExecutorFromContext_FallsBackToConnection(t *testing.T) {
	conn := &fakeConn{}
	assert.Same(t, Executor(conn), ExecutorFromContext(context.Background(), conn))
}
