package user

import (
	"github.com/spf13/cobra"
)

// Cmd is the user command group
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Browse the user directory",
	Long:  `List users with their subscription status and search the directory.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(searchCmd)
}
