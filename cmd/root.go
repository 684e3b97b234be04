package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/juststeveking/vpnwatch/internal/egress"
	"github.com/juststeveking/vpnwatch/internal/logging"
	"github.com/juststeveking/vpnwatch/internal/metrics"
	"github.com/juststeveking/vpnwatch/internal/monitor"
	"github.com/juststeveking/vpnwatch/internal/notify"
	"github.com/juststeveking/vpnwatch/internal/vpn"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vpnwatch",
	Short: "Keep a site reachable by rotating your VPN region when it fails",
	Long: `vpnwatch probes a single URL on a timer. When the probe keeps failing it
disconnects your VPN client and reconnects through a randomly chosen region,
then pauses probing for a short cooldown while the tunnel settles. A second
timer rotates the region on a fixed schedule regardless of health.

Every event is printed to the console and appended to the log file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrInitConfig(cmd)
		if err != nil {
			return err
		}

		// Nothing may be scheduled if the VPN client is missing
		if err := vpn.Preflight(cfg.VPN.Executable); err != nil {
			return fmt.Errorf("%w (check vpn.executable in your config)", err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		logger := logging.New(cmd.OutOrStdout(), cfg.LogFile)
		return runMonitor(ctx, cfg, logger, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/vpnwatch/config.yml)")
}

func Execute() {
	if code := execute(os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// runMonitor wires the monitor to its collaborators and blocks until ctx is done
func runMonitor(ctx context.Context, cfg *config.Config, logger *logging.Logger, client vpn.Client) error {
	mon, err := newMonitor(cfg, logger, client)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	startMetrics(ctx, cfg, mon, logger)

	logger.Info("vpnwatch started: probing %s every %s (%s policy, threshold %d)",
		cfg.Target.URL, cfg.CheckIntervalDuration(), cfg.FailurePolicy.Mode, cfg.Threshold())

	mon.Start(ctx)

	logger.Info("vpnwatch stopped")
	return nil
}

// newMonitor builds a monitor with the optional egress lookup and notifier attached.
// A nil client drives the CLI from the config.
func newMonitor(cfg *config.Config, logger *logging.Logger, client vpn.Client) (*monitor.Monitor, error) {
	if client == nil {
		client = vpn.NewCLIClient(cfg.VPN, nil)
	}

	opts := monitor.Options{}
	if cfg.Egress.URL != "" {
		opts.Egress = egress.NewLookup(cfg.Egress.URL, cfg.Egress.Field, cfg.TimeoutDuration())
	}

	mon, err := monitor.NewMonitor(cfg, client, logger, opts)
	if err != nil {
		return nil, err
	}

	if cfg.Notifications {
		mon.Reconnector().OnFinished(notify.NewNotifier(true).NotifyReconnect)
	}

	return mon, nil
}

// startMetrics serves Prometheus metrics in the background when enabled
func startMetrics(ctx context.Context, cfg *config.Config, mon *monitor.Monitor, logger *logging.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	collector := metrics.NewCollector()
	mon.SetRecorder(collector)

	go func() {
		logger.Info("Serving metrics on http://%s/metrics", cfg.Metrics.Listen)
		if err := collector.Serve(ctx, cfg.Metrics.Listen); err != nil {
			logger.Error("Metrics server stopped: %v", err)
		}
	}()
}

// resolveConfigPath returns --config or the default location
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

// loadConfig loads the config, pointing at init when it is missing
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config: %w (run 'vpnwatch init' to create one)", err)
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadOrInitConfig creates a default config on first run, then loads it
func loadOrInitConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Config not found, creating default config at %s...\n", path)
	if initErr := config.InitConfig(path, false); initErr != nil {
		return nil, fmt.Errorf("failed to create default config: %w", initErr)
	}

	// Try loading again
	cfg, err = config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config after creation: %w", err)
	}
	return cfg, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
