package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCheckInterval   = "60s"
	DefaultRefreshInterval = "30m"
	DefaultCooldown        = "30s"
	DefaultSettleDelay     = "5s"
	DefaultTimeout         = "15s"
	DefaultThreshold       = 3
	DefaultLogFile         = "vpn-monitor.log"
	DefaultMetricsListen   = "127.0.0.1:9464"
	DefaultEgressField     = "country"

	// RegionPlaceholder is replaced with the chosen region in vpn.connect_args.
	RegionPlaceholder = "{region}"
)

const (
	PolicyThreshold = "threshold"
	PolicyImmediate = "immediate"
)

// DefaultRegions is the candidate list a reconnect picks from when none is configured
var DefaultRegions = []string{"Canada", "Australia", "Hong Kong", "Taiwan", "Poland", "Ireland"}

// DefaultHeaders makes the probe look like a regular browser visit
var DefaultHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
}

// Config represents the vpnwatch configuration
type Config struct {
	Target          Target        `yaml:"target"`
	CheckInterval   string        `yaml:"check_interval"`
	RefreshInterval string        `yaml:"refresh_interval"`
	Cooldown        string        `yaml:"cooldown"`
	SettleDelay     string        `yaml:"settle_delay"`
	FailurePolicy   FailurePolicy `yaml:"failure_policy"`
	VPN             VPN           `yaml:"vpn"`
	Regions         []string      `yaml:"regions"`
	RegionSeed      int64         `yaml:"region_seed,omitempty"`
	LogFile         string        `yaml:"log_file"`
	Notifications   bool          `yaml:"notifications,omitempty"`
	Metrics         Metrics       `yaml:"metrics,omitempty"`
	Egress          Egress        `yaml:"egress,omitempty"`
}

// Target is the endpoint whose reachability decides when to switch regions
type Target struct {
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Timeout        string            `yaml:"timeout,omitempty"`
	ExpectedStatus int               `yaml:"expected_status,omitempty"`
}

// FailurePolicy decides how many failed probes trigger a reconnect
type FailurePolicy struct {
	Mode      string `yaml:"mode"`                // "threshold" or "immediate"
	Threshold int    `yaml:"threshold,omitempty"` // consecutive failures, threshold mode only
}

// VPN describes how to drive the vendor CLI
type VPN struct {
	Executable     string   `yaml:"executable"`
	DisconnectArgs []string `yaml:"disconnect_args"`
	ConnectArgs    []string `yaml:"connect_args"`
}

// Metrics configures the optional Prometheus listener
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen,omitempty"`
}

// Egress configures the optional lookup of the new exit location after a connect
type Egress struct {
	URL   string `yaml:"url,omitempty"`
	Field string `yaml:"field,omitempty"`
}

// ValidationError aggregates multiple configuration problems
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	return errors.As(target, &other)
}

// GetConfigPath returns the path to the global config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "vpnwatch", "config.yml"), nil
}

// InitConfig creates the config directory and file with default content
func InitConfig(configPath string, force bool) error {
	return WriteConfig(configPath, getDefaultConfig(), force)
}

// WriteConfig writes raw YAML to configPath, refusing to overwrite unless force is set
func WriteConfig(configPath string, content string, force bool) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadConfig reads, parses and validates the config file.
// Variables from a .env file in the working directory are loaded first so
// ${VAR} placeholders can refer to them.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	_ = godotenv.Load()

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.resolveEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig writes the config back to the file
func SaveConfig(configPath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveRegions rewrites only the regions list in the file at configPath.
// Everything else, including comments and ${VAR} placeholders, is kept as written.
func SaveRegions(configPath string, regions []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return fmt.Errorf("failed to update config file: top level is not a mapping")
	}

	items := make([]*yaml.Node, len(regions))
	for i, r := range regions {
		items[i] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: r}
	}

	root := doc.Content[0]
	var value *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "regions" {
			value = root.Content[i+1]
			break
		}
	}
	if value == nil {
		value = &yaml.Node{Style: yaml.FlowStyle}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "regions"}, value)
	}
	value.Kind = yaml.SequenceNode
	value.Tag = "!!seq"
	value.Value = ""
	value.Content = items

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Default returns a config populated with defaults for the current OS
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset field with its default
func (c *Config) ApplyDefaults() {
	if c.CheckInterval == "" {
		c.CheckInterval = DefaultCheckInterval
	}
	if c.RefreshInterval == "" {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.Cooldown == "" {
		c.Cooldown = DefaultCooldown
	}
	if c.SettleDelay == "" {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.Target.Timeout == "" {
		c.Target.Timeout = DefaultTimeout
	}
	if c.Target.ExpectedStatus == 0 {
		c.Target.ExpectedStatus = 200
	}
	if c.Target.Headers == nil {
		c.Target.Headers = make(map[string]string, len(DefaultHeaders))
		for k, v := range DefaultHeaders {
			c.Target.Headers[k] = v
		}
	}
	if c.FailurePolicy.Mode == "" {
		c.FailurePolicy.Mode = PolicyThreshold
	}
	if c.FailurePolicy.Threshold == 0 {
		c.FailurePolicy.Threshold = DefaultThreshold
	}

	executable, disconnect, connect := platformVPNDefaults()
	if c.VPN.Executable == "" {
		c.VPN.Executable = executable
	}
	if len(c.VPN.DisconnectArgs) == 0 {
		c.VPN.DisconnectArgs = disconnect
	}
	if len(c.VPN.ConnectArgs) == 0 {
		c.VPN.ConnectArgs = connect
	}

	if len(c.Regions) == 0 {
		c.Regions = append([]string(nil), DefaultRegions...)
	}
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
	if c.Egress.Field == "" {
		c.Egress.Field = DefaultEgressField
	}
}

// Validate checks the configuration for semantic problems
func (c *Config) Validate() error {
	problems := make([]string, 0)

	if strings.TrimSpace(c.Target.URL) == "" {
		problems = append(problems, "target.url is required")
	} else if !isHTTPURL(c.Target.URL) {
		problems = append(problems, fmt.Sprintf("target.url %q must be an http(s) URL", c.Target.URL))
	}

	problems = append(problems, positiveDuration("target.timeout", c.Target.Timeout)...)
	problems = append(problems, positiveDuration("check_interval", c.CheckInterval)...)
	problems = append(problems, positiveDuration("refresh_interval", c.RefreshInterval)...)
	problems = append(problems, positiveDuration("cooldown", c.Cooldown)...)
	if d, err := time.ParseDuration(c.SettleDelay); err != nil {
		problems = append(problems, fmt.Sprintf("settle_delay: %v", err))
	} else if d < 0 {
		problems = append(problems, "settle_delay must be non-negative")
	}

	switch c.FailurePolicy.Mode {
	case PolicyThreshold:
		if c.FailurePolicy.Threshold < 1 {
			problems = append(problems, "failure_policy.threshold must be at least 1")
		}
	case PolicyImmediate:
	default:
		problems = append(problems, fmt.Sprintf("failure_policy.mode %q is not supported (use %q or %q)", c.FailurePolicy.Mode, PolicyThreshold, PolicyImmediate))
	}

	if strings.TrimSpace(c.VPN.Executable) == "" {
		problems = append(problems, "vpn.executable is required")
	}
	if len(c.VPN.DisconnectArgs) == 0 {
		problems = append(problems, "vpn.disconnect_args must not be empty")
	}
	if !containsPlaceholder(c.VPN.ConnectArgs) {
		problems = append(problems, fmt.Sprintf("vpn.connect_args must contain %s", RegionPlaceholder))
	}

	if len(c.Regions) == 0 {
		problems = append(problems, "regions must contain at least one entry")
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(r) == "" {
			problems = append(problems, fmt.Sprintf("regions[%d] is empty", i))
		}
	}

	if strings.TrimSpace(c.LogFile) == "" {
		problems = append(problems, "log_file is required")
	}
	if c.Metrics.Enabled && strings.TrimSpace(c.Metrics.Listen) == "" {
		problems = append(problems, "metrics.listen must be set when metrics.enabled is true")
	}
	if c.Egress.URL != "" && !isHTTPURL(c.Egress.URL) {
		problems = append(problems, fmt.Sprintf("egress.url %q must be an http(s) URL", c.Egress.URL))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// AddRegion adds a region to the candidate list
func (c *Config) AddRegion(region string) error {
	region = strings.TrimSpace(region)
	if region == "" {
		return fmt.Errorf("region name is required")
	}

	// Check for duplicate names
	for _, r := range c.Regions {
		if strings.EqualFold(r, region) {
			return fmt.Errorf("region '%s' already exists", region)
		}
	}

	c.Regions = append(c.Regions, region)
	return nil
}

// RemoveRegion removes a region by name from the candidate list
func (c *Config) RemoveRegion(region string) error {
	for i, r := range c.Regions {
		if strings.EqualFold(r, region) {
			if len(c.Regions) == 1 {
				return fmt.Errorf("cannot remove '%s': at least one region is required", r)
			}
			c.Regions = append(c.Regions[:i], c.Regions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("region '%s' not found", region)
}

// Threshold returns the number of consecutive failures that triggers a reconnect
func (c *Config) Threshold() int {
	if c.FailurePolicy.Mode == PolicyImmediate {
		return 1
	}
	return c.FailurePolicy.Threshold
}

// CheckIntervalDuration returns how often the target is probed
func (c *Config) CheckIntervalDuration() time.Duration {
	return mustDuration(c.CheckInterval, DefaultCheckInterval)
}

// RefreshIntervalDuration returns how often a reconnect is forced regardless of health
func (c *Config) RefreshIntervalDuration() time.Duration {
	return mustDuration(c.RefreshInterval, DefaultRefreshInterval)
}

// CooldownDuration returns how long probes are skipped after a reconnect starts
func (c *Config) CooldownDuration() time.Duration {
	return mustDuration(c.Cooldown, DefaultCooldown)
}

// SettleDelayDuration returns the pause between disconnect and connect
func (c *Config) SettleDelayDuration() time.Duration {
	return mustDuration(c.SettleDelay, DefaultSettleDelay)
}

// TimeoutDuration returns the per-probe timeout
func (c *Config) TimeoutDuration() time.Duration {
	return mustDuration(c.Target.Timeout, DefaultTimeout)
}

// envPlaceholder matches ${VAR_NAME}; a bare $ or brace is left alone
var envPlaceholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ResolveEnv replaces ${VAR_NAME} placeholders with environment values.
// Unset variables resolve to the empty string.
func ResolveEnv(value string) string {
	return envPlaceholder.ReplaceAllStringFunc(value, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func (c *Config) resolveEnv() {
	c.Target.URL = ResolveEnv(c.Target.URL)
	c.VPN.Executable = ResolveEnv(c.VPN.Executable)
	c.Egress.URL = ResolveEnv(c.Egress.URL)
	for k, v := range c.Target.Headers {
		c.Target.Headers[k] = ResolveEnv(v)
	}
}

func platformVPNDefaults() (string, []string, []string) {
	if runtime.GOOS == "windows" {
		return filepath.Join("C:\\", "Program Files", "NordVPN", "nordvpn.exe"),
			[]string{"-d"},
			[]string{"-c", "-g", RegionPlaceholder}
	}
	return "/usr/bin/nordvpn", []string{"disconnect"}, []string{"connect", RegionPlaceholder}
}

func positiveDuration(field, value string) []string {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []string{fmt.Sprintf("%s: %v", field, err)}
	}
	if d <= 0 {
		return []string{fmt.Sprintf("%s must be greater than zero", field)}
	}
	return nil
}

func mustDuration(value, fallback string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func containsPlaceholder(args []string) bool {
	for _, a := range args {
		if strings.Contains(a, RegionPlaceholder) {
			return true
		}
	}
	return false
}

// getDefaultConfig returns the default configuration as YAML
func getDefaultConfig() string {
	executable, disconnect, connect := platformVPNDefaults()
	return fmt.Sprintf(`# vpnwatch configuration

# Endpoint that must stay reachable through the VPN
target:
  url: https://example.com/
  timeout: %s
  expected_status: 200

# How often the target is probed, and how often a new region is forced anyway
check_interval: %s
refresh_interval: %s

# Probes are skipped for this long once a reconnect starts
cooldown: %s
# Pause between disconnect and connect so the client can release the adapter
settle_delay: %s

# mode: threshold (reconnect after N consecutive failures) or immediate
failure_policy:
  mode: %s
  threshold: %d

vpn:
  executable: %q
  disconnect_args: %s
  connect_args: %s

regions: %s

log_file: %s

notifications: false

metrics:
  enabled: false
  listen: %s

# Optional lookup of the new exit location after each connect
# egress:
#   url: https://ipinfo.io/json
#   field: country
`, DefaultTimeout, DefaultCheckInterval, DefaultRefreshInterval, DefaultCooldown, DefaultSettleDelay,
		PolicyThreshold, DefaultThreshold, executable, yamlList(disconnect), yamlList(connect),
		yamlList(DefaultRegions), DefaultLogFile, DefaultMetricsListen)
}

// RenderConfig serializes cfg with a short header comment
func RenderConfig(cfg *Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return "# vpnwatch configuration\n" + string(data), nil
}

func yamlList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
