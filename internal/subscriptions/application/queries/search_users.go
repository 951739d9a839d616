package queries

import (
	"context"

	"github.com/paperlus/ledger/internal/directory/domain/user"
)

// SearchUsersQuery searches the directory.
type SearchUsersQuery struct {
	Query string
	Field user.SearchField // FieldAny matches every field
	Limit int              // 0 means no limit
}

// SearchUsersHandler handles the SearchUsersQuery.
type SearchUsersHandler struct {
	users user.Repository
}

// NewSearchUsersHandler creates a new SearchUsersHandler.
func NewSearchUsersHandler(users user.Repository) *SearchUsersHandler {
	return &SearchUsersHandler{users: users}
}

// Handle returns directory entries where any ';'-separated term hits the
// query's field. A query without terms finds nobody.
func (h *SearchUsersHandler) Handle(ctx context.Context, query SearchUsersQuery) ([]UserDTO, error) {
	out := []UserDTO{}
	if len(user.SearchTerms(query.Query)) == 0 {
		return out, nil
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := user.Search(users, query.Field, query.Query)
	if query.Limit > 0 && len(matched) > query.Limit {
		matched = matched[:query.Limit]
	}
	for _, u := range matched {
		out = append(out, toUserDTO(u))
	}
	return out, nil
}
