package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
)

type usersInput struct {
	Status   string `json:"status,omitempty"`
	Search   string `json:"search,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type searchInput struct {
	Query string `json:"query" jsonschema:"required"`
	Field string `json:"field,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

const defaultSearchLimit = 20

type userTools struct {
	app *cli.App
}

func (t userTools) list(ctx context.Context, input usersInput) (*queries.ListUsersResult, error) {
	if t.app == nil || t.app.ListUsersHandler == nil {
		return nil, errAppNotInitialized
	}
	return t.app.ListUsersHandler.Handle(ctx, queries.ListUsersQuery{
		Filter:   input.Status,
		Search:   input.Search,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

func (t userTools) search(ctx context.Context, input searchInput) ([]queries.UserDTO, error) {
	if t.app == nil || t.app.SearchUsersHandler == nil {
		return nil, errAppNotInitialized
	}
	if err := requireField("query", input.Query); err != nil {
		return nil, err
	}
	field, err := user.ParseSearchField(input.Field)
	if err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return t.app.SearchUsersHandler.Handle(ctx, queries.SearchUsersQuery{Query: input.Query, Field: field, Limit: limit})
}

func registerUserTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := userTools{app: deps.App}

	srv.Tool("ledger.users").
		Description("List users by status (active, expired, none, all) with search and paging").
		Handler(tools.list)

	srv.Tool("ledger.search").
		Description("Find users by id, company, email or phone; field restricts terms to one of email, name, id, phone").
		Handler(tools.search)

	return nil
}
