package cache

import (
	"context"
	"log/slog"
	"strings"

	"github.com/paperlus/ledger/pkg/observability"
)

// Instrumented records hits and misses of the wrapped cache. Backend errors
// on Get are logged and reported as misses so a cache outage degrades to
// reading from the database.
type Instrumented struct {
	next    Cache
	metrics observability.Metrics
	logger  *slog.Logger
	backend string
}

// NewInstrumented wraps next. backend names it in metric tags.
func NewInstrumented(next Cache, backend string, metrics observability.Metrics, logger *slog.Logger) *Instrumented {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, metrics: metrics, logger: logger, backend: backend}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	tags := []observability.Tag{observability.T("backend", c.backend), observability.T("kind", keyKind(key))}
	val, ok, err := c.next.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "backend", c.backend, "key", key, "error", err)
		c.metrics.Counter(observability.MetricCacheMisses, 1, tags...)
		return nil, false, nil
	}
	if ok {
		c.metrics.Counter(observability.MetricCacheHits, 1, tags...)
	} else {
		c.metrics.Counter(observability.MetricCacheMisses, 1, tags...)
	}
	return val, ok, nil
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "backend", c.backend, "key", key, "error", err)
	}
	return nil
}

func (c *Instrumented) Delete(ctx context.Context, keys ...string) error {
	return c.next.Delete(ctx, keys...)
}

func (c *Instrumented) Close() error {
	return c.next.Close()
}

func keyKind(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
