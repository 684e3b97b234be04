package cmd

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/tui"
	"github.com/juststeveking/vpnwatch/internal/vpn"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Run the monitor with a live terminal dashboard",
	Long: `Run the monitor exactly like the root command, but show its state in a
full-screen dashboard. Log lines still go to the log file.

Keys:
  r  reconnect now
  q  quit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrInitConfig(cmd)
		if err != nil {
			return err
		}

		if err := vpn.Preflight(cfg.VPN.Executable); err != nil {
			return fmt.Errorf("%w (check vpn.executable in your config)", err)
		}

		// The dashboard owns the terminal
		logger := logging.New(io.Discard, cfg.LogFile)
		logs := tui.LogChannel(logger)

		mon, err := newMonitor(cfg, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to create monitor: %w", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		startMetrics(ctx, cfg, mon, logger)

		// Start monitoring in background
		done := make(chan struct{})
		go func() {
			defer close(done)
			mon.Start(ctx)
		}()

		model := tui.NewModel(ctx, mon, logs, cancel)
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

		_, runErr := p.Run()
		cancel()
		<-done

		if runErr != nil && ctx.Err() == nil {
			return fmt.Errorf("failed to start TUI: %w", runErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
