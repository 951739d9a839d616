package subscription

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	subscriptionDomain "github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Count users per subscription status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetCountsHandler == nil {
			return cli.ErrNotInitialized
		}

		counts, err := app.GetCountsHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}

		return cli.Render(cmd, counts, func(w io.Writer) error {
			for _, b := range subscriptionDomain.CountOrder {
				fmt.Fprintf(w, "%-9s%d\n", b.Title()+":", counts.Of(b))
			}
			return nil
		})
	},
}
