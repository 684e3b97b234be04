package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var configShowCmd = &cobra.Command{
	Use:   "config:show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults and ${VAR} placeholders
have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config: %s\n", path)
		fmt.Fprintln(out, "─────────────────────────────────────")
		fmt.Fprintf(out, "Target:           %s\n", cfg.Target.URL)
		fmt.Fprintf(out, "Expected Status:  %d\n", cfg.Target.ExpectedStatus)
		fmt.Fprintf(out, "Timeout:          %s\n", cfg.TimeoutDuration())
		fmt.Fprintf(out, "Check Interval:   %s\n", cfg.CheckIntervalDuration())
		fmt.Fprintf(out, "Refresh Interval: %s\n", cfg.RefreshIntervalDuration())
		fmt.Fprintf(out, "Cooldown:         %s\n", cfg.CooldownDuration())
		fmt.Fprintf(out, "Settle Delay:     %s\n", cfg.SettleDelayDuration())
		fmt.Fprintf(out, "Policy:           %s (threshold %d)\n", cfg.FailurePolicy.Mode, cfg.Threshold())
		fmt.Fprintf(out, "VPN Executable:   %s\n", cfg.VPN.Executable)
		fmt.Fprintf(out, "Disconnect:       %s\n", strings.Join(cfg.VPN.DisconnectArgs, " "))
		fmt.Fprintf(out, "Connect:          %s\n", strings.Join(cfg.VPN.ConnectArgs, " "))
		fmt.Fprintf(out, "Regions:          %s\n", strings.Join(cfg.Regions, ", "))
		fmt.Fprintf(out, "Log File:         %s\n", cfg.LogFile)

		if cfg.Metrics.Enabled {
			fmt.Fprintf(out, "Metrics:          http://%s/metrics\n", cfg.Metrics.Listen)
		}
		if cfg.Egress.URL != "" {
			fmt.Fprintf(out, "Egress Lookup:    %s (%s)\n", cfg.Egress.URL, cfg.Egress.Field)
		}

		if len(cfg.Target.Headers) > 0 {
			fmt.Fprintln(out, "\nHeaders:")
			for key, value := range cfg.Target.Headers {
				fmt.Fprintf(out, "  %s: %s\n", key, value)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configShowCmd)
}
