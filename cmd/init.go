package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/spf13/cobra"
)

var (
	forceInit       bool
	interactiveInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize vpnwatch configuration",
	Long: `Create a new vpnwatch configuration file at ~/.config/vpnwatch/config.yml
with sensible defaults. Use --interactive to answer a few questions instead
of editing the file by hand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}

		if interactiveInit {
			cfg, err := runInitForm()
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				return err
			}

			content, err := config.RenderConfig(cfg)
			if err != nil {
				return err
			}
			if err := config.WriteConfig(path, content, forceInit); err != nil {
				return err
			}
		} else if err := config.InitConfig(path, forceInit); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if forceInit {
			fmt.Fprintf(out, "✓ Configuration reset at %s\n", path)
		} else {
			fmt.Fprintf(out, "✓ Configuration initialized at %s\n", path)
		}

		fmt.Fprintln(out, "\nCheck the target URL and VPN executable, then run:")
		fmt.Fprintln(out, "  vpnwatch")

		return nil
	},
}

// runInitForm asks for the settings most people change and returns a full config
func runInitForm() (*config.Config, error) {
	cfg := config.Default()

	threshold := strconv.Itoa(cfg.FailurePolicy.Threshold)
	regions := append([]string(nil), cfg.Regions...)

	regionOptions := make([]huh.Option[string], 0, len(config.DefaultRegions))
	for _, r := range config.DefaultRegions {
		regionOptions = append(regionOptions, huh.NewOption(r, r).Selected(true))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target URL").
				Description("The site that must stay reachable").
				Placeholder("https://example.com/").
				Value(&cfg.Target.URL).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
						return errors.New("must start with http:// or https://")
					}
					return nil
				}),
			huh.NewInput().
				Title("VPN executable").
				Value(&cfg.VPN.Executable),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Failure policy").
				Options(
					huh.NewOption("Reconnect after consecutive failures", config.PolicyThreshold),
					huh.NewOption("Reconnect on the first failure", config.PolicyImmediate),
				).
				Value(&cfg.FailurePolicy.Mode),
			huh.NewInput().
				Title("Consecutive failures").
				Description("Only used by the threshold policy").
				Value(&threshold).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
						return errors.New("must be a whole number of at least 1")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Regions to rotate through").
				Options(regionOptions...).
				Value(&regions).
				Validate(func(s []string) error {
					if len(s) == 0 {
						return errors.New("pick at least one region")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin()).WithWidth(80).WithShowHelp(true)

	if err := form.Run(); err != nil {
		return nil, err
	}

	cfg.Target.URL = strings.TrimSpace(cfg.Target.URL)
	cfg.FailurePolicy.Threshold, _ = strconv.Atoi(strings.TrimSpace(threshold))
	cfg.Regions = regions

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "overwrite existing configuration")
	initCmd.Flags().BoolVarP(&interactiveInit, "interactive", "i", false, "answer a few questions instead of writing defaults")
	rootCmd.AddCommand(initCmd)
}
