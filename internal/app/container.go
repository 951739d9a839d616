// Package app wires the ledger's repositories, handlers and infrastructure
// into a Container shared by the CLI, the MCP server and the worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	sharedApplication "github.com/paperlus/ledger/internal/shared/application"
	"github.com/paperlus/ledger/internal/shared/infrastructure/cache"
	"github.com/paperlus/ledger/internal/shared/infrastructure/database"
	_ "github.com/paperlus/ledger/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/paperlus/ledger/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/paperlus/ledger/internal/shared/infrastructure/eventbus"
	"github.com/paperlus/ledger/internal/shared/infrastructure/migrations"
	"github.com/paperlus/ledger/internal/shared/infrastructure/outbox"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
	"github.com/paperlus/ledger/internal/subscriptions/infrastructure/catalog"
	"github.com/paperlus/ledger/internal/subscriptions/infrastructure/invalidation"
	"github.com/paperlus/ledger/internal/subscriptions/infrastructure/seed"
	"github.com/paperlus/ledger/pkg/config"
	"github.com/paperlus/ledger/pkg/observability"
)

// maxOutboxLag is how far behind the relay may fall before readiness degrades.
const maxOutboxLag = 5 * time.Minute

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis, nil unless REDIS_URL is set.
	RedisClient redis.UniversalClient

	// Observability
	MetricsRegistry *promclient.Registry
	Metrics         observability.Metrics
	Health          *observability.HealthRegistry

	// Plans
	Catalog *subscription.Catalog
	Stacker subscription.Stacker

	// Repositories
	UserRepo         user.Repository
	SubscriptionRepo subscription.Repository
	OutboxRepo       outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Read cache and its invalidation consumer
	Cache            cache.Cache
	CacheInvalidator *invalidation.CacheInvalidator

	// Publishers
	EventPublisher    eventbus.Publisher
	InProcessEventBus *eventbus.InProcessEventBus

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// Subscription Command Handlers
	AssignBulkHandler         *commands.AssignBulkHandler
	AssignIndividualHandler   *commands.AssignIndividualHandler
	UpdateSubscriptionHandler *commands.UpdateSubscriptionHandler
	RevokeAllHandler          *commands.RevokeAllHandler
	ExpireLapsedHandler       *commands.ExpireLapsedHandler

	// Query Handlers
	ListPlansHandler      *queries.ListPlansHandler
	GetCountsHandler      *queries.GetCountsHandler
	GetUserSummaryHandler *queries.GetUserSummaryHandler
	ListUsersHandler      *queries.ListUsersHandler
	SearchUsersHandler    *queries.SearchUsersHandler

	// Seeder loads the demo dataset into an empty directory.
	Seeder *seed.Seeder
}

// Option customises container construction.
type Option func(*options)

type options struct {
	clock        func() time.Time
	noLocalCache bool
}

// WithClock replaces time.Now for every date-dependent handler.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithoutLocalCache disables the in-process LRU fallback. Without REDIS_URL
// the container then caches nothing. Long-running processes use it because
// writes made by other processes never reach their LRU.
func WithoutLocalCache() Option {
	return func(o *options) {
		o.noLocalCache = true
	}
}

// NewContainer creates the container for cfg. An empty DATABASE_URL selects
// the local SQLite file, an empty REDIS_URL the in-process LRU cache and an
// empty RABBITMQ_URL the in-process event bus, so a bare config runs
// entirely on one machine.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Health: observability.NewHealthRegistry(),
	}

	if err := c.initDatabase(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRepositories(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initCatalog(); err != nil {
		c.Close()
		return nil, err
	}
	c.initMetrics()
	if err := c.initCache(ctx, !o.noLocalCache); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	c.initHandlers(o.clock)
	c.initHealthChecks()

	if cfg.SeedDemo {
		if err := c.SeedDemo(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	logger.Info("ledger container ready",
		"driver", c.DBDriver.String(),
		"plans", c.Catalog.Len(),
		"redis", c.RedisClient != nil,
		"lifetime_mode", cfg.LifetimeMode,
	)
	return c, nil
}

func (c *Container) initDatabase(ctx context.Context) error {
	conn, err := database.NewConnection(ctx, database.Config{
		URL:        c.Config.DatabaseURL,
		SQLitePath: c.Config.SQLitePath,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.Logger.Info("connected to database", "driver", c.DBDriver.String())
	return nil
}

func (c *Container) initRepositories() error {
	factory := NewRepositoryFactory(c.DBConn)

	var err error
	if c.UserRepo, err = factory.UserRepository(); err != nil {
		return err
	}
	if c.SubscriptionRepo, err = factory.SubscriptionRepository(); err != nil {
		return err
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return err
	}
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)
	return nil
}

func (c *Container) initCatalog() error {
	plans, err := catalog.Load(c.Config.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load plan catalog: %w", err)
	}
	c.Catalog = plans
	c.Stacker = subscription.NewStacker(plans, subscription.Resolver{
		LegacyLifetime: c.Config.LegacyLifetime(),
	})
	return nil
}

func (c *Container) initMetrics() {
	reg := promclient.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.MetricsRegistry = reg
	c.Metrics = observability.NewPrometheusMetrics(reg, c.Logger)
}

func (c *Container) initCache(ctx context.Context, localFallback bool) error {
	var (
		backend cache.Cache
		name    string
	)
	if c.Config.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, c.Config.RedisURL, c.Config.CacheTTL)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			c.Logger.Warn("Redis not available, using in-process cache", "error", err)
		} else {
			c.RedisClient = rc.Client()
			backend, name = rc, "redis"
			c.Logger.Info("connected to Redis")
		}
	}
	switch {
	case backend != nil:
	case localFallback:
		lru, err := cache.NewLRU(c.Config.CacheSize, c.Config.CacheTTL)
		if err != nil {
			return fmt.Errorf("failed to create cache: %w", err)
		}
		backend, name = lru, "lru"
	default:
		backend, name = cache.Noop{}, "none"
		c.Logger.Info("no shared cache configured, ledger views are not cached")
	}

	c.Cache = cache.NewInstrumented(backend, name, c.Metrics, c.Logger)
	c.CacheInvalidator = invalidation.NewCacheInvalidator(c.Cache, c.Logger)
	return nil
}

func (c *Container) initPublisher() error {
	if c.Config.RabbitMQURL == "" {
		bus := eventbus.NewInProcessEventBus(c.Logger)
		bus.RegisterConsumer(c.CacheInvalidator)
		c.InProcessEventBus = bus
		c.EventPublisher = bus
		c.Logger.Info("relaying events in-process")
	} else {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err != nil {
			if !c.Config.IsDevelopment() {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
			c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		} else {
			failures := c.Config.BreakerFailures
			if failures < 0 {
				failures = 0
			}
			c.EventPublisher = eventbus.NewCircuitBreakerPublisher(publisher, eventbus.BreakerConfig{
				ConsecutiveFailures: uint32(failures),
				OpenTimeout:         c.Config.BreakerOpenTimeout,
			}, c.Logger)
		}
	}

	processorConfig := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		processorConfig.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		processorConfig.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		processorConfig.MaxRetries = c.Config.OutboxMaxRetries
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, c.Logger).
		WithMetrics(c.Metrics)
	return nil
}

func (c *Container) initHandlers(clock func() time.Time) {
	deps := commands.Deps{
		Subscriptions: c.SubscriptionRepo,
		Users:         c.UserRepo,
		Outbox:        c.OutboxRepo,
		UnitOfWork:    c.UnitOfWork,
		Stacker:       c.Stacker,
		Invalidator:   c.CacheInvalidator,
		Metrics:       c.Metrics,
		Logger:        c.Logger,
		Clock:         clock,
	}

	c.AssignBulkHandler = commands.NewAssignBulkHandler(deps)
	c.AssignIndividualHandler = commands.NewAssignIndividualHandler(deps)
	c.UpdateSubscriptionHandler = commands.NewUpdateSubscriptionHandler(deps)
	c.RevokeAllHandler = commands.NewRevokeAllHandler(deps)
	c.ExpireLapsedHandler = commands.NewExpireLapsedHandler(deps)

	c.ListPlansHandler = queries.NewListPlansHandler(c.Catalog)
	c.GetCountsHandler = queries.NewGetCountsHandler(c.UserRepo, c.SubscriptionRepo, c.Cache)
	c.GetUserSummaryHandler = queries.NewGetUserSummaryHandler(c.UserRepo, c.SubscriptionRepo, c.Cache)
	c.ListUsersHandler = queries.NewListUsersHandler(c.UserRepo, c.SubscriptionRepo)
	c.SearchUsersHandler = queries.NewSearchUsersHandler(c.UserRepo)

	c.Seeder = seed.NewSeeder(c.UserRepo, c.SubscriptionRepo, c.Catalog, c.UnitOfWork, c.Logger)
}

func (c *Container) initHealthChecks() {
	c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		client := c.RedisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	processor := c.OutboxProcessor
	c.Health.Register("outbox", observability.OutboxHealthChecker(func() time.Duration {
		return time.Duration(processor.GetStats().LagSeconds * float64(time.Second))
	}, maxOutboxLag))
}

// SeedDemo loads the built-in demo dataset unless users already exist.
func (c *Container) SeedDemo(ctx context.Context) error {
	ds, err := seed.Demo()
	if err != nil {
		return err
	}
	if _, err := c.Seeder.Seed(ctx, ds); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return nil
}

// Close releases every resource the container opened. It is safe on a
// partially built container.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.Logger.Warn("error closing cache", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
