package queries

import (
	"context"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/cache"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// GetCountsHandler returns how many users fall in each bucket.
type GetCountsHandler struct {
	users user.Repository
	subs  subscription.Repository
	cache cache.Cache
}

// NewGetCountsHandler creates a new GetCountsHandler. A nil cache disables caching.
func NewGetCountsHandler(users user.Repository, subs subscription.Repository, c cache.Cache) *GetCountsHandler {
	if c == nil {
		c = cache.Noop{}
	}
	return &GetCountsHandler{users: users, subs: subs, cache: c}
}

// Handle returns the global counts, from cache when possible.
func (h *GetCountsHandler) Handle(ctx context.Context) (subscription.Counts, error) {
	var counts subscription.Counts
	if ok, _ := cache.GetJSON(ctx, h.cache, cache.KeyCounts, &counts); ok {
		return counts, nil
	}

	users, err := h.users.List(ctx)
	if err != nil {
		return subscription.Counts{}, err
	}
	subs, err := h.subs.FindAll(ctx)
	if err != nil {
		return subscription.Counts{}, err
	}

	counts = subscription.CountBuckets(userIDs(users), subs)
	_ = cache.SetJSON(ctx, h.cache, cache.KeyCounts, counts)
	return counts, nil
}

func userIDs(users []*user.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID()
	}
	return ids
}
