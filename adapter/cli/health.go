package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/pkg/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the ledger's dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}
		if app.Health == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}

		overall := app.Health.GetOverallHealth(cmd.Context())
		err := Render(cmd, overall, func(w io.Writer) error {
			fmt.Fprintf(w, "status: %s\n", overall.Status)
			names := make([]string, 0, len(overall.Checks))
			for name := range overall.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				check := overall.Checks[name]
				fmt.Fprintf(w, "  %-10s %-9s %s\n", name, check.Status, check.Message)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if overall.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("ledger is unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
