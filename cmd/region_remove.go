package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	forceRemove bool
)

var regionRemoveCmd = &cobra.Command{
	Use:   "region:remove <name>",
	Short: "Remove a region from the rotation",
	Long: `Remove a region by name. At least one region must remain.

Example:
  vpnwatch region:remove Taiwan
  vpnwatch region:remove "Hong Kong" --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		region := args[0]

		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		// Load existing config
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		// Confirm removal unless --force is used
		if !forceRemove {
			fmt.Fprintf(out, "Remove region '%s'? (y/N): ", region)
			reader := bufio.NewReader(cmd.InOrStdin())
			response, err := reader.ReadString('\n')
			if err != nil && response == "" {
				return err
			}

			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
		}

		if err := cfg.RemoveRegion(region); err != nil {
			return err
		}

		if err := config.SaveRegions(path, cfg.Regions); err != nil {
			return err
		}

		fmt.Fprintf(out, "✓ Removed region '%s' from %s\n", region, path)
		return nil
	},
}

func init() {
	regionRemoveCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "skip confirmation prompt")
	rootCmd.AddCommand(regionRemoveCmd)
}
