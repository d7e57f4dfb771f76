package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hillstoneLeo/rint-data-manager/pkg/storage"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the storage directory tree",
	Long: `Creates the configured storage root and the users/ directory that
holds per-identity namespaces. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		root := mgr.Cfg.GetString("storage.root")
		if err := storage.EnsureTree(root); err != nil {
			fmt.Printf("Setup failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Storage directory created at: %s\n", root)
		fmt.Printf("Users directory created at: %s/users\n", root)
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
