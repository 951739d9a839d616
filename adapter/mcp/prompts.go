package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common ledger workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("subscription_review").
		Description("Review which customers are active, which have lapsed and which never subscribed.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Subscription Review", `Review the state of our subscriptions. Please:

1. Read the bucket totals from the ledger://counts resource
2. Read ledger://users/expired and ledger://users/none

Then:
- List expired customers with the plan they last held and when it ended
- Point out customers who never subscribed
- Suggest which customers to offer a plan, using ledger://plans for options

Do not change anything. Only report.`), nil
		})

	srv.Prompt("extend_coverage").
		Description("Walk through adding a plan to one or more customers. Pass user_ids and plan_id.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			userIDs := args["user_ids"]
			if userIDs == "" {
				userIDs = "(ask me which users)"
			}
			planID := args["plan_id"]
			if planID == "" {
				planID = "(ask me which plan, see ledger://plans)"
			}
			return userPrompt("Extend Coverage", fmt.Sprintf(`I want to add plan %s for users %s.

Before assigning:
1. Call ledger.summary for each user and tell me their current label and end date
2. Explain that the new plan starts where existing coverage ends, so nothing is lost
3. Show me the end date each user will have afterwards

After I confirm, call ledger.assign once with all users, then report the result message
and any skipped users.`, planID, userIDs)), nil
		})

	srv.Prompt("expiry_sweep").
		Description("Preview and run the expiry sweep for lapsed subscriptions.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Expiry Sweep", `Help me run the expiry sweep. Please:

1. Read ledger://users/active and find subscriptions whose end date is already past
2. Tell me how many users would move to expired
3. After I confirm, call ledger.expire and report the users it touched
4. Read ledger://counts again and compare with the totals before the sweep`), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
