package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paperlus/ledger/pkg/observability"
)

// InProcessEventBus is the Publisher used in local mode: instead of a broker,
// the outbox relay hands envelopes straight to the registered consumers.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger

	// serializes dispatch so consumers see events in outbox order
	dispatchMu sync.Mutex
}

// NewInProcessEventBus creates a bus with no consumers.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{registry: NewConsumerRegistry(logger), logger: logger}
}

// RegisterConsumer subscribes consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Registry exposes the consumer registry.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Publish always succeeds. A payload that does not decode, or a consumer
// that fails, is logged and the message still counts as delivered so one bad
// consumer cannot hold back the local outbox.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := DecodeEvent(routingKey, payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "dropping undecodable event", "routing_key", routingKey, observability.ErrorKey, err)
		return nil
	}

	b.dispatchMu.Lock()
	start := time.Now()
	err = b.registry.Dispatch(ctx, event)
	elapsed := time.Since(start).Milliseconds()
	b.dispatchMu.Unlock()

	attrs := []any{"routing_key", routingKey, "event_id", event.EventID, observability.DurationKey, elapsed}
	if err != nil {
		b.logger.ErrorContext(ctx, "local consumers failed", append(attrs, observability.ErrorKey, err)...)
		return nil
	}
	b.logger.DebugContext(ctx, "event delivered locally", attrs...)
	return nil
}

// Close does nothing; the bus holds no connections.
func (b *InProcessEventBus) Close() error {
	return nil
}
