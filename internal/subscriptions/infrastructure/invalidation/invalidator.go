// Package invalidation keeps cached ledger views consistent with writes.
package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/paperlus/ledger/internal/shared/infrastructure/cache"
	"github.com/paperlus/ledger/internal/shared/infrastructure/eventbus"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// CacheInvalidator drops the summary of affected users and the global counts.
// Command handlers call Invalidate directly after commit; as an event
// consumer it also catches writes relayed from other processes.
type CacheInvalidator struct {
	cache  cache.Cache
	logger *slog.Logger
}

// NewCacheInvalidator creates a new CacheInvalidator.
func NewCacheInvalidator(c cache.Cache, logger *slog.Logger) *CacheInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheInvalidator{cache: c, logger: logger}
}

// Invalidate drops cached views of userIDs. Failures are logged; the entries
// age out with the cache TTL.
func (i *CacheInvalidator) Invalidate(ctx context.Context, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	if err := i.cache.Delete(ctx, cache.UserKeys(userIDs...)...); err != nil {
		i.logger.WarnContext(ctx, "cache invalidation failed", "users", len(userIDs), "error", err)
	}
}

// EventTypes returns the subscription routing keys.
func (i *CacheInvalidator) EventTypes() []string {
	return []string{
		subscription.RoutingKeyAssigned,
		subscription.RoutingKeyRevoked,
		subscription.RoutingKeyExpired,
	}
}

// Handle invalidates the user named in the event payload.
func (i *CacheInvalidator) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload subscription.EventUserID
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.RoutingKey, err)
	}
	if payload.UserID == "" {
		return fmt.Errorf("%s event %s has no user_id", event.RoutingKey, event.EventID)
	}
	i.Invalidate(ctx, payload.UserID)
	return nil
}
