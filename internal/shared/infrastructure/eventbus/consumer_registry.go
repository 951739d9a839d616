package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// ConsumerRegistry routes events to the consumers subscribed to their
// routing key.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	routes map[string][]EventConsumer
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{routes: make(map[string][]EventConsumer), logger: logger}
}

// Register subscribes consumer to every routing key it declares.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	keys := consumer.EventTypes()

	r.mu.Lock()
	for _, key := range keys {
		r.routes[key] = append(r.routes[key], consumer)
	}
	r.mu.Unlock()

	r.logger.Debug("consumer registered", "routing_keys", keys)
}

// Consumers returns a copy of the consumers subscribed to routingKey.
func (r *ConsumerRegistry) Consumers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.routes[routingKey])
}

// Dispatch hands event to each subscribed consumer in registration order.
// Every consumer runs even when an earlier one fails; the failures come back
// joined.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	var errs []error
	for i, consumer := range r.Consumers(event.RoutingKey) {
		if err := consumer.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("consumer %d for %s: %w", i, event.RoutingKey, err))
		}
	}
	return errors.Join(errs...)
}

// ConsumerCount counts subscriptions over all routing keys.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, cs := range r.routes {
		n += len(cs)
	}
	return n
}
