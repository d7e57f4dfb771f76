// User administration against the shared user database, for operators
// managing remote access from the command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hillstoneLeo/rint-data-manager/pkg/userdb"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users in the shared user database",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Run: func(cmd *cobra.Command, args []string) {
		users, err := userStore().List()
		if err != nil {
			fail(err)
		}
		fmt.Println("ID | Email | Admin | Active | Created")
		for _, u := range users {
			fmt.Printf("%d | %s | %v | %v | %s\n",
				u.ID, u.Email, u.IsAdmin, u.IsActive, u.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func userStore() *userdb.Store {
	store, err := mgr.UserStore()
	if err != nil {
		fail(err)
	}
	return store
}

func fail(err error) {
	fmt.Printf("%v\n", err)
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userListCmd)
}
