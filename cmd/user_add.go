package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addAsAdmin bool

var userAddCmd = &cobra.Command{
	Use:   "add EMAIL PASSWORD",
	Short: "Register a new user",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := userStore().Create(args[0], args[1], addAsAdmin); err != nil {
			fail(err)
		}
		fmt.Printf("User %s created\n", args[0])
	},
}

func init() {
	userAddCmd.Flags().BoolVar(&addAsAdmin, "admin", false, "grant admin privileges")
	userCmd.AddCommand(userAddCmd)
}
