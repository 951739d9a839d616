package app

import (
	"errors"
	"fmt"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	directoryPersistence "github.com/paperlus/ledger/internal/directory/infrastructure/persistence"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	"github.com/paperlus/ledger/internal/shared/infrastructure/outbox"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	subscriptionPersistence "github.com/paperlus/ledger/internal/subscriptions/infrastructure/persistence"
)

// ErrUnsupportedDriver is returned for a connection whose driver has no
// repository implementation.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// RepositoryFactory picks the repository implementations matching the
// connection's driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a factory for conn.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, driver: conn.Driver()}
}

// byDriver returns postgres() or sqlite() depending on the driver.
func byDriver[T any](f *RepositoryFactory, postgres, sqlite func() T) (T, error) {
	switch f.driver {
	case database.DriverPostgres:
		return postgres(), nil
	case database.DriverSQLite:
		return sqlite(), nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q", ErrUnsupportedDriver, f.driver)
}

// UserRepository returns the directory repository.
func (f *RepositoryFactory) UserRepository() (user.Repository, error) {
	return byDriver(f,
		func() user.Repository { return directoryPersistence.NewPostgresUserRepository(f.conn) },
		func() user.Repository { return directoryPersistence.NewSQLiteUserRepository(f.conn) },
	)
}

// SubscriptionRepository returns the ledger repository.
func (f *RepositoryFactory) SubscriptionRepository() (subscription.Repository, error) {
	return byDriver(f,
		func() subscription.Repository { return subscriptionPersistence.NewPostgresSubscriptionRepository(f.conn) },
		func() subscription.Repository { return subscriptionPersistence.NewSQLiteSubscriptionRepository(f.conn) },
	)
}

// OutboxRepository returns the outbox store the commands append events to.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	return byDriver(f,
		func() outbox.Repository { return outbox.NewPostgresRepository(f.conn) },
		func() outbox.Repository { return outbox.NewSQLiteRepository(f.conn) },
	)
}

// Driver returns the connection's driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the connection the repositories share.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
