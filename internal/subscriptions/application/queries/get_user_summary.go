package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/shared/infrastructure/cache"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// GetUserSummaryQuery selects the user to summarise.
type GetUserSummaryQuery struct {
	UserID string
}

// UserSummaryDTO is a user together with their subscription summary.
type UserSummaryDTO struct {
	User    UserDTO    `json:"user"`
	Summary SummaryDTO `json:"summary"`
}

// GetUserSummaryHandler handles the GetUserSummaryQuery.
type GetUserSummaryHandler struct {
	users user.Repository
	subs  subscription.Repository
	cache cache.Cache
}

// NewGetUserSummaryHandler creates a new GetUserSummaryHandler. A nil cache disables caching.
func NewGetUserSummaryHandler(users user.Repository, subs subscription.Repository, c cache.Cache) *GetUserSummaryHandler {
	if c == nil {
		c = cache.Noop{}
	}
	return &GetUserSummaryHandler{users: users, subs: subs, cache: c}
}

// Handle executes the GetUserSummaryQuery.
func (h *GetUserSummaryHandler) Handle(ctx context.Context, query GetUserSummaryQuery) (*UserSummaryDTO, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", subscription.ErrInvalidArgument)
	}

	var dto UserSummaryDTO
	key := cache.SummaryKey(userID)
	if ok, _ := cache.GetJSON(ctx, h.cache, key, &dto); ok {
		return &dto, nil
	}

	u, err := h.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	subs, err := h.subs.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dto = UserSummaryDTO{User: toUserDTO(u), Summary: summarize(userID, subs)}
	_ = cache.SetJSON(ctx, h.cache, key, dto)
	return &dto, nil
}
