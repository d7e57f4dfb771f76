package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the remote storage endpoint",
	Long: `Starts the HTTP endpoint that DVC clients push to and pull from.
The storage root must exist and be writable; run 'rint setup' first on a
fresh host.`,
	Run: func(cmd *cobra.Command, args []string) {
		srv, err := mgr.RemoteServer()
		if err != nil {
			mgr.Logger.Fatal(err)
		}
		if err := srv.Run(); err != nil {
			mgr.Logger.Fatal(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
