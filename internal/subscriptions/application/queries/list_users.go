package queries

import (
	"context"
	"fmt"
	"slices"

	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// DefaultPageSize is used when a listing does not ask for one.
const DefaultPageSize = 10

// PageSizes are the page sizes a listing accepts.
var PageSizes = []int{5, 10, 20, 50, 100}

// ListUsersQuery contains the parameters for listing users.
type ListUsersQuery struct {
	Filter   string // "active" (default), "expired", "none", "all"
	Search   string // ';'-separated terms, any of which may match
	Page     int    // 1-based, defaults to 1
	PageSize int    // one of PageSizes, defaults to DefaultPageSize
}

// ListUsersResult is one page of the user listing.
type ListUsersResult struct {
	Rows       []UserRowDTO        `json:"rows"`
	Filter     string              `json:"filter"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
	Counts     subscription.Counts `json:"counts"`
}

// ListUsersHandler handles the ListUsersQuery.
type ListUsersHandler struct {
	users user.Repository
	subs  subscription.Repository
}

// NewListUsersHandler creates a new ListUsersHandler.
func NewListUsersHandler(users user.Repository, subs subscription.Repository) *ListUsersHandler {
	return &ListUsersHandler{users: users, subs: subs}
}

// Handle executes the ListUsersQuery. Counts always cover the whole
// directory, independent of the filter and search.
func (h *ListUsersHandler) Handle(ctx context.Context, query ListUsersQuery) (*ListUsersResult, error) {
	filter, err := subscription.ParseBucket(query.Filter)
	if err != nil {
		return nil, err
	}
	pageSize := query.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if !slices.Contains(PageSizes, pageSize) {
		return nil, fmt.Errorf("%w: page size must be one of %v", subscription.ErrInvalidArgument, PageSizes)
	}
	page := max(query.Page, 1)

	users, err := h.users.List(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := h.subs.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byUser := subscription.GroupByUser(subs)

	result := &ListUsersResult{
		Filter:   string(filter),
		Page:     page,
		PageSize: pageSize,
		Counts:   subscription.CountBuckets(userIDs(users), subs),
	}

	var matched []UserRowDTO
	for _, u := range user.Filter(users, query.Search) {
		summary := summarize(u.ID(), byUser[u.ID()])
		if !filter.Includes(subscription.Bucket(summary.Status)) {
			continue
		}
		matched = append(matched, UserRowDTO{User: toUserDTO(u), Summary: summary})
	}

	result.Total = len(matched)
	result.TotalPages = (result.Total + pageSize - 1) / pageSize
	start := min((page-1)*pageSize, result.Total)
	end := min(start+pageSize, result.Total)
	result.Rows = append([]UserRowDTO{}, matched[start:end]...)

	return result, nil
}
