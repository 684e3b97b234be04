package vpn

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/juststeveking/vpnwatch/internal/config"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []recordedCall
	out   string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	return f.out, f.err
}

func TestCLIClientCommands(t *testing.T) {
	runner := &fakeRunner{out: "ok"}
	client := NewCLIClient(config.VPN{
		Executable:     "/opt/nordvpn",
		DisconnectArgs: []string{"-d"},
		ConnectArgs:    []string{"-c", "-g", "{region}"},
	}, runner)

	if _, err := client.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}
	out, err := client.Connect(context.Background(), "Hong Kong")
	if err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if out != "ok" {
		t.Errorf("Expected output 'ok', got %q", out)
	}

	want := []recordedCall{
		{name: "/opt/nordvpn", args: []string{"-d"}},
		{name: "/opt/nordvpn", args: []string{"-c", "-g", "Hong Kong"}},
	}
	if !reflect.DeepEqual(runner.calls, want) {
		t.Errorf("Expected calls %+v, got %+v", want, runner.calls)
	}
}

func TestCLIClientWrapsErrors(t *testing.T) {
	boom := errors.New("exit status 1")
	client := NewCLIClient(config.VPN{
		Executable:     "nordvpn",
		DisconnectArgs: []string{"disconnect"},
		ConnectArgs:    []string{"connect", "{region}"},
	}, &fakeRunner{err: boom})

	_, err := client.Disconnect(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped error, got %v", err)
	}

	_, err = client.Connect(context.Background(), "Poland")
	if err == nil || !strings.Contains(err.Error(), "Poland") {
		t.Errorf("Expected connect error naming the region, got %v", err)
	}
}

func TestConnectArgsDoesNotMutateTemplate(t *testing.T) {
	template := []string{"connect", "{region}"}
	args := ConnectArgs(template, "Ireland")

	if args[1] != "Ireland" {
		t.Errorf("Expected region substituted, got %v", args)
	}
	if template[1] != "{region}" {
		t.Errorf("Template was modified: %v", template)
	}
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()

	err := Preflight(filepath.Join(dir, "missing.exe"))
	if !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("Expected ErrExecutableNotFound for missing file, got %v", err)
	}

	err = Preflight(dir)
	if !errors.Is(err, ErrExecutableNotFound) {
		t.Errorf("Expected ErrExecutableNotFound for directory, got %v", err)
	}

	exe := filepath.Join(dir, "nordvpn")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := Preflight(exe); err != nil {
		t.Errorf("Expected preflight to pass, got %v", err)
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}

	out, err := ExecRunner{}.Run(context.Background(), "/bin/sh", "-c", "echo connected")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out != "connected" {
		t.Errorf("Expected 'connected', got %q", out)
	}

	_, err = ExecRunner{}.Run(context.Background(), "/bin/sh", "-c", "echo nope >&2; exit 3")
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("Expected error carrying stderr, got %v", err)
	}
}
