package user

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/paperlus/ledger/adapter/cli"
	directory "github.com/paperlus/ledger/internal/directory/domain/user"
	"github.com/paperlus/ledger/internal/subscriptions/application/queries"
)

var (
	searchLimit int
	searchBy    string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the user directory",
	Long: `Search users by company, email, phone or ID. Separate several terms
with ';' to match any of them. --by restricts every term to one field.

Examples:
  ledger user search anya
  ledger user search --by id "U-1138;U-8752"
  ledger user search --by phone 0877`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.SearchUsersHandler == nil {
			return cli.ErrNotInitialized
		}

		field, err := directory.ParseSearchField(searchBy)
		if err != nil {
			return err
		}

		users, err := app.SearchUsersHandler.Handle(cmd.Context(), queries.SearchUsersQuery{
			Query: args[0],
			Field: field,
			Limit: searchLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to search users: %w", err)
		}

		return cli.Render(cmd, users, func(w io.Writer) error {
			if len(users) == 0 {
				fmt.Fprintln(w, "No users found.")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(w, "%-8s %-20s %-26s %s\n", u.ID, u.CompanyName, u.Email, u.Phone)
			}
			return nil
		})
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "max number of users (0 = no limit)")
	searchCmd.Flags().StringVar(&searchBy, "by", "", "field to match: email, name, id or phone (default any)")
}
