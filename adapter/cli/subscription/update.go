package subscription

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	subscriptionDomain "github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

var updateCmd = &cobra.Command{
	Use:   "update [user-id] [plan-id]",
	Short: "Move a user onto another plan",
	Long: `Add a subscription on another plan for one user. Like every
assignment it stacks after the user's current coverage.

Examples:
  ledger subscription update U-9163 plan-5year`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateSubscriptionHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.UpdateSubscriptionHandler.Handle(cmd.Context(), commands.UpdateSubscriptionCommand{
			OperatorID: app.OperatorID,
			UserID:     args[0],
			PlanID:     args[1],
		})
		if errors.Is(err, subscriptionDomain.ErrPlanUnchanged) {
			return fmt.Errorf("%s is already on %s", args[0], args[1])
		}
		if err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}

		err = cli.Render(cmd, result, func(w io.Writer) error {
			fmt.Fprintln(w, result.Message)
			if result.PreviousLabel != "" {
				fmt.Fprintf(w, "  previously: %s\n", result.PreviousLabel)
			}
			if result.Subscription != nil {
				printAssigned(w, []commands.AssignedSubscription{*result.Subscription})
			}
			return nil
		})
		if err != nil {
			return err
		}
		if result.PlanNotFound {
			return fmt.Errorf("plan %s not found", result.PlanID)
		}
		return nil
	},
}
