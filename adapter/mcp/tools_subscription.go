package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

type assignInput struct {
	PlanID  string   `json:"plan_id" jsonschema:"required"`
	UserIDs []string `json:"user_ids" jsonschema:"required"`
}

type grantEntry struct {
	UserID string `json:"user_id"`
	PlanID string `json:"plan_id"`
}

type grantInput struct {
	Entries []grantEntry `json:"entries" jsonschema:"required"`
}

type updateInput struct {
	UserID string `json:"user_id" jsonschema:"required"`
	PlanID string `json:"plan_id" jsonschema:"required"`
}

type userIDInput struct {
	UserID string `json:"user_id" jsonschema:"required"`
}

type revokeInput struct {
	UserID  string `json:"user_id" jsonschema:"required"`
	Confirm bool   `json:"confirm"`
}

type expireInput struct {
	AsOf string `json:"as_of,omitempty"`
}

// subscriptionTools backs the ledger.* subscription tools.
type subscriptionTools struct {
	app *cli.App
}

func (t subscriptionTools) plans(ctx context.Context, _ struct{}) ([]queries.PlanDTO, error) {
	if t.app == nil || t.app.ListPlansHandler == nil {
		return nil, errAppNotInitialized
	}
	return t.app.ListPlansHandler.Handle(), nil
}

func (t subscriptionTools) assign(ctx context.Context, input assignInput) (*commands.AssignBulkResult, error) {
	if t.app == nil || t.app.AssignBulkHandler == nil {
		return nil, errAppNotInitialized
	}
	if err := requireField("plan_id", input.PlanID); err != nil {
		return nil, err
	}
	userIDs := cleanIDs(input.UserIDs)
	if len(userIDs) == 0 {
		return nil, errors.New("user_ids must name at least one user")
	}
	return t.app.AssignBulkHandler.Handle(ctx, commands.AssignBulkCommand{
		OperatorID: t.app.OperatorID,
		PlanID:     input.PlanID,
		UserIDs:    userIDs,
	})
}

func (t subscriptionTools) grant(ctx context.Context, input grantInput) (*commands.AssignIndividualResult, error) {
	if t.app == nil || t.app.AssignIndividualHandler == nil {
		return nil, errAppNotInitialized
	}
	if len(input.Entries) == 0 {
		return nil, errors.New("entries must contain at least one user and plan")
	}
	entries := make([]commands.IndividualEntry, 0, len(input.Entries))
	for _, e := range input.Entries {
		entries = append(entries, commands.IndividualEntry{UserID: e.UserID, PlanID: e.PlanID})
	}
	return t.app.AssignIndividualHandler.Handle(ctx, commands.AssignIndividualCommand{
		OperatorID: t.app.OperatorID,
		Entries:    entries,
	})
}

func (t subscriptionTools) update(ctx context.Context, input updateInput) (*commands.UpdateSubscriptionResult, error) {
	if t.app == nil || t.app.UpdateSubscriptionHandler == nil {
		return nil, errAppNotInitialized
	}
	if err := requireField("user_id", input.UserID); err != nil {
		return nil, err
	}
	if err := requireField("plan_id", input.PlanID); err != nil {
		return nil, err
	}
	return t.app.UpdateSubscriptionHandler.Handle(ctx, commands.UpdateSubscriptionCommand{
		OperatorID: t.app.OperatorID,
		UserID:     input.UserID,
		PlanID:     input.PlanID,
	})
}

func (t subscriptionTools) revoke(ctx context.Context, input revokeInput) (*commands.RevokeAllResult, error) {
	if t.app == nil || t.app.RevokeAllHandler == nil {
		return nil, errAppNotInitialized
	}
	if err := requireField("user_id", input.UserID); err != nil {
		return nil, err
	}
	if !input.Confirm {
		return nil, errors.New("revoking removes every subscription the user has; set confirm to true")
	}
	return t.app.RevokeAllHandler.Handle(ctx, commands.RevokeAllCommand{
		OperatorID: t.app.OperatorID,
		UserID:     input.UserID,
	})
}

func (t subscriptionTools) expire(ctx context.Context, input expireInput) (*commands.ExpireLapsedResult, error) {
	if t.app == nil || t.app.ExpireLapsedHandler == nil {
		return nil, errAppNotInitialized
	}
	asOf, err := parseDate(input.AsOf, time.Time{})
	if err != nil {
		return nil, err
	}
	return t.app.ExpireLapsedHandler.Handle(ctx, commands.ExpireLapsedCommand{
		OperatorID: t.app.OperatorID,
		AsOf:       asOf,
	})
}

func (t subscriptionTools) summary(ctx context.Context, input userIDInput) (*queries.UserSummaryDTO, error) {
	if t.app == nil || t.app.GetUserSummaryHandler == nil {
		return nil, errAppNotInitialized
	}
	if err := requireField("user_id", input.UserID); err != nil {
		return nil, err
	}
	return t.app.GetUserSummaryHandler.Handle(ctx, queries.GetUserSummaryQuery{UserID: input.UserID})
}

func (t subscriptionTools) counts(ctx context.Context, _ struct{}) (*subscription.Counts, error) {
	if t.app == nil || t.app.GetCountsHandler == nil {
		return nil, errAppNotInitialized
	}
	counts, err := t.app.GetCountsHandler.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

func registerSubscriptionTools(srv *mcp.Server, deps ToolDependencies) error {
	tools := subscriptionTools{app: deps.App}

	srv.Tool("ledger.plans").
		Description("List the plans in the catalog").
		Handler(tools.plans)

	srv.Tool("ledger.assign").
		Description("Add one plan to many users; each new window starts where the user's coverage ends").
		Handler(tools.assign)

	srv.Tool("ledger.grant").
		Description("Add a plan per user; repeated users stack in entry order").
		Handler(tools.grant)

	srv.Tool("ledger.update").
		Description("Stack a different plan onto a user's coverage").
		Handler(tools.update)

	srv.Tool("ledger.revoke").
		Description("Remove every subscription a user holds (requires confirm)").
		Handler(tools.revoke)

	srv.Tool("ledger.expire").
		Description("Mark active subscriptions that ended before a date (default today) as expired").
		Handler(tools.expire)

	srv.Tool("ledger.summary").
		Description("Show a user's status, label, end date and subscriptions").
		Handler(tools.summary)

	srv.Tool("ledger.counts").
		Description("Count users per status bucket").
		Handler(tools.counts)

	return nil
}
