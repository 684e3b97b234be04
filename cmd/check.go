package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/juststeveking/vpnwatch/internal/monitor"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Probe the target once and report the result",
	Long: `Send a single probe to the configured target and print the outcome.
Exits with status 1 when the target is unhealthy. The VPN is never touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		checker := monitor.NewHTTPChecker(cfg.Target, cfg.TimeoutDuration())
		defer checker.Close()

		result := checker.Check(context.Background())

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Target:        %s\n", result.URL)
		if result.Err != nil {
			fmt.Fprintf(out, "Error:         %v\n", result.Err)
		} else {
			fmt.Fprintf(out, "Status:        %d (expects %d)\n", result.StatusCode, cfg.Target.ExpectedStatus)
		}
		fmt.Fprintf(out, "Response Time: %s\n", result.ResponseTime.Round(time.Millisecond))

		if !result.Healthy {
			return fmt.Errorf("target is unhealthy")
		}

		fmt.Fprintln(out, "✓ Target reachable")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
