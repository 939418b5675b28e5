package wifi

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordedCall struct {
	name string
	args []string
}

// stubRunner records every command and replays canned output per command line.
func stubRunner(calls *[]recordedCall, outputs map[string]string, fail map[string]bool) runnerFunc {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, recordedCall{name: name, args: args})
		key := name + " " + strings.Join(args, " ")
		if fail[key] {
			return []byte("command failed"), errors.New("exit status 1")
		}
		return []byte(outputs[key]), nil
	}
}

func newStubManager(goos string, calls *[]recordedCall, outputs map[string]string, fail map[string]bool) *Manager {
	m := NewManager("ez Share", "88888888", 0)
	m.goos = goos
	m.run = stubRunner(calls, outputs, fail)
	return m
}

func TestConnectDarwin(t *testing.T) {
	var calls []recordedCall
	m := newStubManager("darwin", &calls, nil, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	if len(calls) != 1 {
		t.Fatalf("Connect() ran %d commands, want 1", len(calls))
	}
	want := "networksetup -setairportnetwork en0 ez Share 88888888"
	got := calls[0].name + " " + strings.Join(calls[0].args, " ")
	if got != want {
		t.Errorf("Connect() ran %q, want %q", got, want)
	}
}

func TestConnectDarwinOpenNetwork(t *testing.T) {
	var calls []recordedCall
	m := NewManager("ez Share", "", 0)
	m.goos = "darwin"
	m.run = stubRunner(&calls, nil, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if got := strings.Join(calls[0].args, " "); got != "-setairportnetwork en0 ez Share" {
		t.Errorf("Connect() args = %q, psk should be omitted", got)
	}
}

func TestConnectLinuxCapturesConnectionID(t *testing.T) {
	var calls []recordedCall
	outputs := map[string]string{
		"nmcli d wifi connect ez Share password 88888888": "Device 'wlan0' successfully activated with 'f3b1c2d4-aaaa-bbbb-cccc-000000000000'.",
	}
	m := newStubManager("linux", &calls, outputs, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if m.connectionID != "f3b1c2d4-aaaa-bbbb-cccc-000000000000" {
		t.Errorf("connectionID = %q, want the activated uuid", m.connectionID)
	}

	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	last := calls[len(calls)-1]
	want := "nmcli connection down f3b1c2d4-aaaa-bbbb-cccc-000000000000"
	if got := last.name + " " + strings.Join(last.args, " "); got != want {
		t.Errorf("Disconnect() ran %q, want %q", got, want)
	}
}

func TestConnectLinuxOpenNetwork(t *testing.T) {
	var calls []recordedCall
	m := NewManager("ez Share", "", 0)
	m.goos = "linux"
	m.run = stubRunner(&calls, nil, nil)

	if err := m.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if got := strings.Join(calls[0].args, " "); got != "connection up ez Share" {
		t.Errorf("Connect() args = %q, want connection up", got)
	}
}

func TestConnectFailure(t *testing.T) {
	var calls []recordedCall
	fail := map[string]bool{
		"nmcli d wifi connect ez Share password 88888888": true,
	}
	m := newStubManager("linux", &calls, nil, fail)

	err := m.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() succeeded, want error")
	}
	if !strings.Contains(err.Error(), "ez Share") || !strings.Contains(err.Error(), "command failed") {
		t.Errorf("Connect() error = %v, want ssid and command output", err)
	}
}

func TestDisconnectLinuxWithoutConnection(t *testing.T) {
	var calls []recordedCall
	m := newStubManager("linux", &calls, nil, nil)

	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	if len(calls) != 0 {
		t.Errorf("Disconnect() without a captured connection ran %d commands, want 0", len(calls))
	}
}

func TestDisconnectDarwinPowerCycles(t *testing.T) {
	var calls []recordedCall
	m := newStubManager("darwin", &calls, nil, nil)

	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("Disconnect() ran %d commands, want 2", len(calls))
	}
	if calls[0].args[2] != "off" || calls[1].args[2] != "on" {
		t.Errorf("Disconnect() did not power-cycle: %v", calls)
	}
}

func TestDisconnectNeedsLiveContext(t *testing.T) {
	var calls []recordedCall
	m := NewManager("ez Share", "", 0)
	m.goos = "linux"
	m.connectionID = "f3b1c2d4-aaaa-bbbb-cccc-000000000000"
	m.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		calls = append(calls, recordedCall{name: name, args: args})
		return nil, nil
	}

	expired, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Disconnect(expired); err == nil {
		t.Fatal("Disconnect() with an expired context succeeded, want error")
	}

	// a fresh context restores the network even after the sync deadline passed
	if err := m.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() with a fresh context error: %v", err)
	}
	if len(calls) != 1 {
		t.Errorf("Disconnect() ran %d commands, want 1", len(calls))
	}
}

func TestUnsupportedOS(t *testing.T) {
	var calls []recordedCall
	m := newStubManager("windows", &calls, nil, nil)

	if err := m.Connect(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Connect() error = %v, want ErrUnsupported", err)
	}
	if err := m.Disconnect(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Disconnect() error = %v, want ErrUnsupported", err)
	}
	if len(calls) != 0 {
		t.Errorf("Unsupported OS ran %d commands", len(calls))
	}
}
