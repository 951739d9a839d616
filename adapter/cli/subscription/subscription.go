package subscription

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/internal/subscriptions/application/commands"
	subscriptionDomain "github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

// Cmd is the subscription command group
var Cmd = &cobra.Command{
	Use:     "subscription",
	Aliases: []string{"sub"},
	Short:   "Assign and manage Paper+ subscriptions",
	Long: `Assign plans to users, move users between plans, revoke their
subscriptions and sweep lapsed ones.

New subscriptions stack: each starts when the user's latest active
subscription ends, or today when they have none.`,
}

func init() {
	Cmd.AddCommand(assignCmd)
	Cmd.AddCommand(grantCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(revokeCmd)
	Cmd.AddCommand(expireCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(countsCmd)
	Cmd.AddCommand(plansCmd)
}

func printAssigned(w io.Writer, subs []commands.AssignedSubscription) {
	for _, s := range subs {
		fmt.Fprintf(w, "  %-8s %-26s %s -> %s\n",
			s.UserID, s.PlanName, s.StartDate.Format(subscriptionDomain.DateLayout), s.EndDate)
	}
}
