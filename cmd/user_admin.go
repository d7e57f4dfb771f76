package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var userMakeAdminCmd = &cobra.Command{
	Use:   "make-admin EMAIL",
	Short: "Grant admin privileges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().SetAdmin(args[0], true); err != nil {
			fail(err)
		}
		fmt.Printf("User %s is now an admin\n", args[0])
	},
}

var userRemoveAdminCmd = &cobra.Command{
	Use:   "remove-admin EMAIL",
	Short: "Remove admin privileges",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().SetAdmin(args[0], false); err != nil {
			fail(err)
		}
		fmt.Printf("Admin privileges removed from user: %s\n", args[0])
	},
}

var userEnableCmd = &cobra.Command{
	Use:   "enable EMAIL",
	Short: "Enable a disabled account",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().SetActive(args[0], true); err != nil {
			fail(err)
		}
		fmt.Printf("User %s enabled\n", args[0])
	},
}

var userDisableCmd = &cobra.Command{
	Use:   "disable EMAIL",
	Short: "Disable an account without deleting it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().SetActive(args[0], false); err != nil {
			fail(err)
		}
		fmt.Printf("User %s disabled\n", args[0])
	},
}

func init() {
	userCmd.AddCommand(userMakeAdminCmd)
	userCmd.AddCommand(userRemoveAdminCmd)
	userCmd.AddCommand(userEnableCmd)
	userCmd.AddCommand(userDisableCmd)
}
