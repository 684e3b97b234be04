package vpn

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/juststeveking/vpnwatch/internal/config"
	"github.com/juststeveking/vpnwatch/internal/procutil"
)

// ErrExecutableNotFound is returned by Preflight when the VPN CLI is missing
var ErrExecutableNotFound = errors.New("VPN executable not found")

// Client drives the vendor VPN client
type Client interface {
	Disconnect(ctx context.Context) (string, error)
	Connect(ctx context.Context, region string) (string, error)
}

// CommandRunner runs an external command and returns its combined output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct{}

// Run executes name with args, capturing stdout and stderr together
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cmd := procutil.HideWindow(exec.CommandContext(ctx, name, args...))
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if output != "" {
			return output, fmt.Errorf("%w: %s", err, output)
		}
		return output, err
	}
	return output, nil
}

// CLIClient shells out to a VPN CLI such as nordvpn
type CLIClient struct {
	executable     string
	disconnectArgs []string
	connectArgs    []string
	runner         CommandRunner
}

// NewCLIClient creates a client from the vpn section of the config.
// A nil runner uses ExecRunner.
func NewCLIClient(cfg config.VPN, runner CommandRunner) *CLIClient {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &CLIClient{
		executable:     cfg.Executable,
		disconnectArgs: append([]string(nil), cfg.DisconnectArgs...),
		connectArgs:    append([]string(nil), cfg.ConnectArgs...),
		runner:         runner,
	}
}

// Disconnect runs the disconnect command
func (c *CLIClient) Disconnect(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, c.executable, c.disconnectArgs...)
	if err != nil {
		return out, fmt.Errorf("run disconnect command: %w", err)
	}
	return out, nil
}

// Connect runs the connect command with region substituted into the arguments
func (c *CLIClient) Connect(ctx context.Context, region string) (string, error) {
	out, err := c.runner.Run(ctx, c.executable, ConnectArgs(c.connectArgs, region)...)
	if err != nil {
		return out, fmt.Errorf("run connect command for %s: %w", region, err)
	}
	return out, nil
}

// ConnectArgs replaces the region placeholder in each argument
func ConnectArgs(template []string, region string) []string {
	args := make([]string, len(template))
	for i, a := range template {
		args[i] = strings.ReplaceAll(a, config.RegionPlaceholder, region)
	}
	return args
}

// Preflight verifies the VPN executable exists before anything is scheduled
func Preflight(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrExecutableNotFound, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w at %s: path is a directory", ErrExecutableNotFound, path)
	}
	return nil
}

var _ Client = (*CLIClient)(nil)
