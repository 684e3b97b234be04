package cmd

import (
	"fmt"

	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/vpn"
	"github.com/spf13/cobra"
)

var reconnectReason string

var reconnectCmd = &cobra.Command{
	Use:   "reconnect",
	Short: "Switch to a random region now",
	Long: `Run one disconnect, settle, connect sequence through a randomly chosen
region and wait for it to finish. Exits with status 1 if either step fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := vpn.Preflight(cfg.VPN.Executable); err != nil {
			return fmt.Errorf("%w (check vpn.executable in your config)", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		logger := logging.New(cmd.OutOrStdout(), cfg.LogFile)
		mon, err := newMonitor(cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to create monitor: %w", err)
		}

		event, _ := mon.Reconnector().Reconnect(ctx, reconnectReason)
		if !event.OK() {
			return fmt.Errorf("reconnect failed during %s: %w", event.Stage, event.Err)
		}
		return nil
	},
}

func init() {
	reconnectCmd.Flags().StringVarP(&reconnectReason, "reason", "r", "Manual reconnect", "reason written to the log")
	rootCmd.AddCommand(reconnectCmd)
}
