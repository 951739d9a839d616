package subscription

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
)

var assignCmd = &cobra.Command{
	Use:   "assign [plan-id] [user-id...]",
	Short: "Assign one plan to many users",
	Long: `Assign one plan to every listed user. Each user's new subscription is
stacked after the coverage they already hold.

Examples:
  ledger subscription assign plan-1year U-1138 U-5739
  ledger sub assign plan-trial U-6492 --json`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AssignBulkHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.AssignBulkHandler.Handle(cmd.Context(), commands.AssignBulkCommand{
			OperatorID: app.OperatorID,
			PlanID:     args[0],
			UserIDs:    args[1:],
		})
		if err != nil {
			return fmt.Errorf("failed to assign plan: %w", err)
		}

		err = cli.Render(cmd, result, func(w io.Writer) error {
			fmt.Fprintln(w, result.Message)
			printAssigned(w, result.Subscriptions)
			for _, id := range result.Skipped {
				fmt.Fprintf(w, "  skipped %s (user not found)\n", id)
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
