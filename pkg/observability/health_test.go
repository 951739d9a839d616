package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okPing(context.Context) error   { return nil }
func failPing(context.Context) error { return errors.New("connection refused") }

func TestHealthRegistry_Empty(t *testing.T) {
	registry := NewHealthRegistry()

	health := registry.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Empty(t, health.Checks)
	assert.Empty(t, registry.Names())
}

func TestHealthRegistry_WorstStatusWins(t *testing.T) {
	tests := []struct {
		name     string
		checkers map[string]HealthChecker
		want     HealthStatus
	}{
		{
			name: "all healthy",
			checkers: map[string]HealthChecker{
				"database": DatabaseHealthChecker(okPing),
				"redis":    RedisHealthChecker(okPing),
			},
			want: HealthStatusHealthy,
		},
		{
			name: "redis down degrades",
			checkers: map[string]HealthChecker{
				"database": DatabaseHealthChecker(okPing),
				"redis":    RedisHealthChecker(failPing),
			},
			want: HealthStatusDegraded,
		},
		{
			name: "database down is unhealthy",
			checkers: map[string]HealthChecker{
				"database": DatabaseHealthChecker(failPing),
				"redis":    RedisHealthChecker(failPing),
			},
			want: HealthStatusUnhealthy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for name, c := range tt.checkers {
				registry.Register(name, c)
			}

			health := registry.GetOverallHealth(context.Background())
			assert.Equal(t, tt.want, health.Status)
			assert.Len(t, health.Checks, len(tt.checkers))
			assert.Equal(t, []string{"database", "redis"}, registry.Names())
		})
	}
}

func TestHealthRegistry_CheckRecordsTimingAndMessage(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(failPing))

	results := registry.Check(context.Background())
	res, ok := results["database"]
	require.True(t, ok)
	assert.Equal(t, HealthStatusUnhealthy, res.Status)
	assert.Contains(t, res.Message, "connection refused")
	assert.False(t, res.Timestamp.IsZero())
}

func TestHealthRegistry_CheckTimeout(t *testing.T) {
	registry := NewHealthRegistry()
	registry.timeout = 20 * time.Millisecond
	registry.Register("slow", DatabaseHealthChecker(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	start := time.Now()
	health := registry.GetOverallHealth(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, HealthStatusUnhealthy, health.Status)
	assert.Contains(t, health.Checks["slow"].Message, "deadline exceeded")
}

func TestHealthRegistry_RegisterReplaces(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("database", DatabaseHealthChecker(failPing))
	registry.Register("database", DatabaseHealthChecker(okPing))

	assert.Equal(t, HealthStatusHealthy, registry.GetOverallHealth(context.Background()).Status)
}

func TestOutboxHealthChecker(t *testing.T) {
	lag := time.Duration(0)
	checker := OutboxHealthChecker(func() time.Duration { return lag }, 5*time.Minute)

	res := checker(context.Background())
	assert.Equal(t, HealthStatusHealthy, res.Status)
	assert.Equal(t, 0.0, res.Details["lag_seconds"])

	lag = 6 * time.Minute
	res = checker(context.Background())
	assert.Equal(t, HealthStatusDegraded, res.Status)
	assert.Equal(t, 360.0, res.Details["lag_seconds"])
}

func TestOverallHealth_JSON(t *testing.T) {
	registry := NewHealthRegistry()
	registry.Register("redis", RedisHealthChecker(failPing))

	body, err := json.Marshal(registry.GetOverallHealth(context.Background()))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "degraded", decoded["status"])
	checks := decoded["checks"].(map[string]any)
	assert.Equal(t, "degraded", checks["redis"].(map[string]any)["status"])
}
