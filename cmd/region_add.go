package cmd

import (
	"fmt"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/spf13/cobra"
)

var regionAddCmd = &cobra.Command{
	Use:   "region:add <name>",
	Short: "Add a region to the rotation",
	Long: `Add a region to the list vpnwatch picks from when it reconnects.
The name is passed to the VPN client as-is.

Examples:
  vpnwatch region:add Germany
  vpnwatch region:add "United Kingdom"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		// Load existing config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := cfg.AddRegion(args[0]); err != nil {
			return err
		}

		if err := config.SaveRegions(path, cfg.Regions); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Added region '%s' to %s\n", args[0], path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionAddCmd)
}
