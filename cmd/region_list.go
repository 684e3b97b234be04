package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var regionListCmd = &cobra.Command{
	Use:     "regions",
	Aliases: []string{"region:list"},
	Short:   "List the regions vpnwatch rotates through",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configured regions (%d):\n\n", len(cfg.Regions))
		for _, region := range cfg.Regions {
			fmt.Fprintf(out, "  • %s\n", region)
		}

		if cfg.RegionSeed != 0 {
			fmt.Fprintf(out, "\nSelection is seeded with %d\n", cfg.RegionSeed)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionListCmd)
}
