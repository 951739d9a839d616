package subscription

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List the plan catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListPlansHandler == nil {
			return cli.ErrNotInitialized
		}

		plans := app.ListPlansHandler.Handle()
		return cli.Render(cmd, plans, func(w io.Writer) error {
			for _, p := range plans {
				price := "-"
				if p.Price != nil {
					price = fmt.Sprintf("%d", *p.Price)
				}
				fmt.Fprintf(w, "%-16s %-26s %-9s %10s  %s\n", p.ID, p.Name, p.Duration, price, p.Description)
			}
			return nil
		})
	},
}
