package observability

import (
	"context"
	"log/slog"
	"time"
)

// Observe runs fn as the named operation. The duration is recorded under
// MetricOperationDuration with an outcome tag, failures also count under
// MetricOperationErrors, and the outcome is logged through logger with ctx so
// correlation and operator ids are attached. A nil logger or metrics skips
// that side.
func Observe(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if metrics != nil {
		metrics.Timing(MetricOperationDuration, elapsed, T("operation", operation), T("outcome", outcome))
		if err != nil {
			metrics.Counter(MetricOperationErrors, 1, T("operation", operation))
		}
	}
	if logger != nil {
		if err != nil {
			logger.WarnContext(ctx, "operation failed",
				"operation", operation, DurationKey, elapsed.Milliseconds(), ErrorKey, err.Error())
		} else {
			logger.DebugContext(ctx, "operation completed",
				"operation", operation, DurationKey, elapsed.Milliseconds())
		}
	}
	return err
}
