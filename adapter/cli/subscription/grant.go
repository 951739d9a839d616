package subscription

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
)

var grantCmd = &cobra.Command{
	Use:   "grant [user-id=plan-id...]",
	Short: "Assign a plan per user",
	Long: `Assign a possibly different plan to each user. A user may be listed
more than once; later grants stack after earlier ones.

Examples:
  ledger subscription grant U-1138=plan-1year U-5739=plan-trial
  ledger sub grant U-6492=plan-trial U-6492=plan-1year`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AssignIndividualHandler == nil {
			return cli.ErrNotInitialized
		}

		entries, err := parseEntries(args)
		if err != nil {
			return err
		}

		result, err := app.AssignIndividualHandler.Handle(cmd.Context(), commands.AssignIndividualCommand{
			OperatorID: app.OperatorID,
			Entries:    entries,
		})
		if err != nil {
			return fmt.Errorf("failed to assign subscriptions: %w", err)
		}

		return cli.Render(cmd, result, func(w io.Writer) error {
			fmt.Fprintln(w, result.Message)
			printAssigned(w, result.Subscriptions)
			for _, s := range result.Skipped {
				fmt.Fprintf(w, "  skipped %s=%s (%s)\n", s.UserID, s.PlanID, s.Reason)
			}
			if result.Invalid > 0 {
				fmt.Fprintf(w, "  %d incomplete entries ignored\n", result.Invalid)
			}
			return nil
		})
	},
}

// parseEntries reads "user=plan" pairs. Empty sides are passed through so
// the handler can count them as invalid.
func parseEntries(args []string) ([]commands.IndividualEntry, error) {
	entries := make([]commands.IndividualEntry, 0, len(args))
	for _, arg := range args {
		userID, planID, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q, use user-id=plan-id", arg)
		}
		entries = append(entries, commands.IndividualEntry{UserID: userID, PlanID: planID})
	}
	return entries, nil
}
