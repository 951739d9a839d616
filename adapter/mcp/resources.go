package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// RegisterResources registers MCP resources that expose ledger data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	subs := subscriptionTools{app: deps.App}
	users := userTools{app: deps.App}

	srv.Resource("ledger://plans").
		Name("Plans").
		Description("The plan catalog").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			plans, err := subs.plans(ctx, struct{}{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, plans)
		})

	srv.Resource("ledger://counts").
		Name("Counts").
		Description("Users per status bucket (active, expired, none, all)").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			counts, err := subs.counts(ctx, struct{}{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, counts)
		})

	for _, bucket := range []subscription.Bucket{subscription.BucketActive, subscription.BucketExpired, subscription.BucketNone} {
		filter := string(bucket)
		srv.Resource("ledger://users/" + filter).
			Name("Users (" + filter + ")").
			Description("First page of users whose status is " + filter).
			MimeType("application/json").
			Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
				listing, err := users.list(ctx, usersInput{Status: filter})
				if err != nil {
					return nil, err
				}
				return jsonResource(uri, listing)
			})
	}

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
