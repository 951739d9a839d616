package user

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
	"github.com/paperlus/ledger/internal/subscriptions/domain/subscription"
)

var (
	status   string
	search   string
	page     int
	pageSize int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List users with their subscription status",
	Long: `List users one page at a time, filtered by subscription status and
an optional search. Search terms are separated by ';' and a user matches
when any term matches their company, email, phone or ID.

Filter Options:
  --status      active (default), expired, none, all

Examples:
  ledger user list
  ledger user list --status all --page-size 20
  ledger user list --status none --search "clark;maya"`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListUsersHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.ListUsersHandler.Handle(cmd.Context(), queries.ListUsersQuery{
			Filter:   status,
			Search:   search,
			Page:     page,
			PageSize: pageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		return cli.Render(cmd, result, func(w io.Writer) error {
			parts := make([]string, 0, len(subscription.CountOrder))
			for _, b := range subscription.CountOrder {
				parts = append(parts, fmt.Sprintf("%s %d", b.Title(), result.Counts.Of(b)))
			}
			fmt.Fprintln(w, strings.Join(parts, " | "))
			fmt.Fprintln(w, strings.Repeat("-", 72))

			if len(result.Rows) == 0 {
				fmt.Fprintln(w, "No users found.")
				return nil
			}
			for _, row := range result.Rows {
				label, ends := row.Summary.Label, row.Summary.Ends
				if label == "" {
					label, ends = "-", "-"
				}
				fmt.Fprintf(w, "%-8s %-20s %-8s %-30s %s\n",
					row.User.ID, row.User.CompanyName, row.Summary.Status, label, ends)
			}
			fmt.Fprintf(w, "\nPage %d of %d (%d users)\n", result.Page, result.TotalPages, result.Total)
			return nil
		})
	},
}

func init() {
	listCmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (active, expired, none, all)")
	listCmd.Flags().StringVarP(&search, "search", "q", "", "';'-separated search terms")
	listCmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	listCmd.Flags().IntVarP(&pageSize, "page-size", "n", queries.DefaultPageSize, "users per page (5, 10, 20, 50, 100)")
}
