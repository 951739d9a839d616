package subscription

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	subscriptionDomain "github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

var expireAsOf string

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Mark lapsed subscriptions as expired",
	Long: `Mark every active subscription whose end date has passed as expired.
The worker runs this on a schedule; use it here for a one-off sweep.

Examples:
  ledger subscription expire
  ledger subscription expire --as-of 2025-11-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ExpireLapsedHandler == nil {
			return cli.ErrNotInitialized
		}

		var asOf time.Time
		if expireAsOf != "" {
			parsed, err := subscriptionDomain.ParseDate(expireAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of format (use YYYY-MM-DD): %w", err)
			}
			asOf = parsed
		}

		result, err := app.ExpireLapsedHandler.Handle(cmd.Context(), commands.ExpireLapsedCommand{
			OperatorID: app.OperatorID,
			AsOf:       asOf,
		})
		if err != nil {
			return fmt.Errorf("failed to expire subscriptions: %w", err)
		}

		return cli.Render(cmd, result, func(w io.Writer) error {
			fmt.Fprintln(w, result.Message)
			for _, id := range result.UserIDs {
				fmt.Fprintf(w, "  %s\n", id)
			}
			return nil
		})
	},
}

func init() {
	expireCmd.Flags().StringVar(&expireAsOf, "as-of", "", "sweep date (YYYY-MM-DD), defaults to today")
}
