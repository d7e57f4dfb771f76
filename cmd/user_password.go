package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password EMAIL PASSWORD",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().SetPassword(args[0], args[1]); err != nil {
			fail(err)
		}
		fmt.Printf("Password reset successfully for user: %s\n", args[0])
	},
}

func init() {
	userCmd.AddCommand(userResetPasswordCmd)
}
