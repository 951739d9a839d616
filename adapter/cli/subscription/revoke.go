package subscription

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
)

var confirmRevoke bool

var revokeCmd = &cobra.Command{
	Use:   "revoke [user-id]",
	Short: "Remove every subscription a user holds",
	Long: `Delete all of a user's subscriptions, active and expired alike.
This cannot be undone, so --yes is required.

Examples:
  ledger subscription revoke U-1138 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RevokeAllHandler == nil {
			return cli.ErrNotInitialized
		}
		if !confirmRevoke {
			return errors.New("refusing to revoke without --yes")
		}

		result, err := app.RevokeAllHandler.Handle(cmd.Context(), commands.RevokeAllCommand{
			OperatorID: app.OperatorID,
			UserID:     args[0],
		})
		if err != nil {
			return fmt.Errorf("failed to revoke subscriptions: %w", err)
		}

		return cli.Render(cmd, result, func(w io.Writer) error {
			fmt.Fprintln(w, result.Message)
			return nil
		})
	},
}

func init() {
	revokeCmd.Flags().BoolVarP(&confirmRevoke, "yes", "y", false, "confirm the revocation")
}
