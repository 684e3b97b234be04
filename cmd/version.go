package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X github.com/juststeveking/vpnwatch/cmd.version=..."
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vpnwatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vpnwatch %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
