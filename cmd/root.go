// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hillstoneLeo/rint-data-manager/pkg/rdmmgr"
)

var cfgFile string

var mgr *rdmmgr.Manager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rint",
	Short: "RINT data manager remote storage",
	Long:  `A DVC-compatible remote storage endpoint with per-user isolation and pluggable authentication.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		mgrArgs := map[string]interface{}{}
		if cfgFile != "" {
			mgrArgs["config-file"] = cfgFile
		}

		var err error
		mgr, err = rdmmgr.NewManager(mgrArgs)
		if err != nil {
			fmt.Printf("Failed to initialize manager: %v\n", err)
			os.Exit(1)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		mgr.Destroy()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by rint.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if mgr == nil || mgr.Logger == nil {
			fmt.Printf("%v\n", err)
		} else {
			mgr.Logger.Error(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/rdm.yaml)")
}
