package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userDeleteCmd = &cobra.Command{
	Use:   "delete EMAIL",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().Delete(args[0]); err != nil {
			fail(err)
		}
		fmt.Printf("User %s deleted successfully\n", args[0])
	},
}

func init() {
	userCmd.AddCommand(userDeleteCmd)
}
