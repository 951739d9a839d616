// Package config loads ledger settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/paperlus/ledger/pkg/observability"
)

// Lifetime modes for the Lifetime plan's expiry.
const (
	LifetimeModeNever  = "never"
	LifetimeModeLegacy = "legacy"
)

// DefaultOperatorID identifies the operator when LEDGER_OPERATOR_ID is unset.
const DefaultOperatorID = "00000000-0000-0000-0000-000000000001"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv     string
	LogLevel   string
	LogFormat  string
	OperatorID uuid.UUID

	// Database. An empty DatabaseURL selects the local SQLite file.
	DatabaseURL string
	SQLitePath  string

	// Redis. Empty disables Redis in favour of the in-process cache.
	RedisURL string

	// RabbitMQ. Empty relays events in-process.
	RabbitMQURL string

	// Ledger
	CatalogPath  string
	LifetimeMode string
	SeedDemo     bool
	CacheTTL     time.Duration
	CacheSize    int

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxStatsInterval    time.Duration
	OutboxRetentionDays    int
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr      string
	ExpirySchedule        string
	OutboxCleanupSchedule string
	BreakerFailures       int
	BreakerOpenTimeout    time.Duration

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("LEDGER_SQLITE_PATH", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		CatalogPath:  getEnv("LEDGER_CATALOG_PATH", ""),
		LifetimeMode: getEnv("LEDGER_LIFETIME_MODE", LifetimeModeNever),
		SeedDemo:     getBoolEnv("LEDGER_SEED_DEMO", false),
		CacheTTL:     getDurationEnv("LEDGER_CACHE_TTL", 5*time.Minute),
		CacheSize:    getIntEnv("LEDGER_CACHE_SIZE", 1024),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxStatsInterval:    getDurationEnv("OUTBOX_STATS_INTERVAL", 30*time.Second),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr:      getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
		ExpirySchedule:        getEnv("LEDGER_EXPIRY_SCHEDULE", ""),
		OutboxCleanupSchedule: getEnv("LEDGER_OUTBOX_CLEANUP_SCHEDULE", "@daily"),
		BreakerFailures:       getIntEnv("PUBLISHER_BREAKER_FAILURES", 5),
		BreakerOpenTimeout:    getDurationEnv("PUBLISHER_BREAKER_TIMEOUT", 30*time.Second),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	operator, err := uuid.Parse(getEnv("LEDGER_OPERATOR_ID", DefaultOperatorID))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_OPERATOR_ID: %w", err)
	}
	cfg.OperatorID = operator

	switch cfg.LifetimeMode {
	case LifetimeModeNever, LifetimeModeLegacy:
	default:
		return nil, fmt.Errorf("invalid LEDGER_LIFETIME_MODE %q: want %q or %q",
			cfg.LifetimeMode, LifetimeModeNever, LifetimeModeLegacy)
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LogConfig returns the logger settings for the named service. Development
// logs at debug level; production defaults to JSON.
func (c *Config) LogConfig(service string) observability.LogConfig {
	logCfg := observability.DefaultLogConfig()
	if c.IsProduction() {
		logCfg = observability.ProductionLogConfig()
	}
	logCfg.ServiceName = service
	if c.LogLevel != "" {
		logCfg.Level = observability.LogLevel(strings.ToLower(c.LogLevel))
	}
	if c.IsDevelopment() {
		logCfg.Level = observability.LogLevelDebug
	}
	if c.LogFormat != "" {
		logCfg.Format = observability.LogFormat(strings.ToLower(c.LogFormat))
	}
	return logCfg
}

// IsLocal reports whether the ledger runs on the embedded SQLite database.
func (c *Config) IsLocal() bool {
	return c.DatabaseURL == ""
}

// LegacyLifetime reports whether Lifetime plans get a dated +100 years end.
func (c *Config) LegacyLifetime() bool {
	return c.LifetimeMode == LifetimeModeLegacy
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
