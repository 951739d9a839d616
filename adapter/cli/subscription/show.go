package subscription

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show a user's subscriptions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetUserSummaryHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.GetUserSummaryHandler.Handle(cmd.Context(), queries.GetUserSummaryQuery{UserID: args[0]})
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		return cli.Render(cmd, result, func(w io.Writer) error {
			u, s := result.User, result.Summary
			fmt.Fprintf(w, "%s  %s\n", u.ID, u.CompanyName)
			if u.Email != "" {
				fmt.Fprintf(w, "  email:  %s\n", u.Email)
			}
			if u.Phone != "" {
				fmt.Fprintf(w, "  phone:  %s\n", u.Phone)
			}
			fmt.Fprintf(w, "  status: %s\n", s.Status)
			if s.Label != "" {
				fmt.Fprintf(w, "  plan:   %s\n", s.Label)
				fmt.Fprintf(w, "  ends:   %s\n", s.Ends)
			}
			if len(s.Subscriptions) == 0 {
				return nil
			}
			fmt.Fprintln(w)
			for _, sub := range s.Subscriptions {
				fmt.Fprintf(w, "  [%-7s] %-26s %s -> %s\n", sub.Status, sub.PlanName, sub.StartDate, sub.EndDate)
			}
			return nil
		})
	},
}
