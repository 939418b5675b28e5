package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"runtime"
	"time"
)

// ErrUnsupported is returned on platforms without a known WiFi CLI.
var ErrUnsupported = errors.New("wifi switching is not supported on this OS")

var activationRe = regexp.MustCompile(`activated with '([^']*)'`)

type runnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Manager joins the card's WiFi network and restores the previous network
// afterwards. Darwin uses networksetup, Linux uses nmcli; everything else
// reports ErrUnsupported so the caller can fall back to a manual prompt.
type Manager struct {
	ssid   string
	psk    string
	settle time.Duration
	goos   string
	run    runnerFunc

	// nmcli connection id captured on connect, needed to disconnect
	connectionID string
}

func NewManager(ssid, psk string, settle time.Duration) *Manager {
	return &Manager{
		ssid:   ssid,
		psk:    psk,
		settle: settle,
		goos:   runtime.GOOS,
		run:    execRunner,
	}
}

func (m *Manager) Connect(ctx context.Context) error {
	var err error
	switch m.goos {
	case "darwin":
		err = m.connectDarwin(ctx)
	case "linux":
		err = m.connectLinux(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, m.goos)
	}
	if err != nil {
		return err
	}

	slog.Info("connected to card network", "ssid", m.ssid)
	return m.wait(ctx)
}

func (m *Manager) Disconnect(ctx context.Context) error {
	switch m.goos {
	case "darwin":
		// power-cycling the interface makes the OS rejoin the default network
		if _, err := m.run(ctx, "networksetup", "-setairportpower", "en0", "off"); err != nil {
			return fmt.Errorf("failed to power off wifi interface: %w", err)
		}
		if _, err := m.run(ctx, "networksetup", "-setairportpower", "en0", "on"); err != nil {
			return fmt.Errorf("failed to power on wifi interface: %w", err)
		}
	case "linux":
		if m.connectionID == "" {
			return nil
		}
		if out, err := m.run(ctx, "nmcli", "connection", "down", m.connectionID); err != nil {
			return fmt.Errorf("failed to deactivate %s: %w: %s", m.connectionID, err, out)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, m.goos)
	}
	return m.wait(ctx)
}

func (m *Manager) connectDarwin(ctx context.Context) error {
	args := []string{"-setairportnetwork", "en0", m.ssid}
	if m.psk != "" {
		args = append(args, m.psk)
	}
	if out, err := m.run(ctx, "networksetup", args...); err != nil {
		return fmt.Errorf("failed to join %s: %w: %s", m.ssid, err, out)
	}
	return nil
}

func (m *Manager) connectLinux(ctx context.Context) error {
	var args []string
	if m.psk != "" {
		args = []string{"d", "wifi", "connect", m.ssid, "password", m.psk}
	} else {
		args = []string{"connection", "up", m.ssid}
	}
	out, err := m.run(ctx, "nmcli", args...)
	if err != nil {
		return fmt.Errorf("failed to join %s: %w: %s", m.ssid, err, out)
	}
	if match := activationRe.FindSubmatch(out); match != nil {
		m.connectionID = string(match[1])
	}
	return nil
}

// wait gives the network time to settle; the card's DHCP is not instant.
func (m *Manager) wait(ctx context.Context) error {
	if m.settle <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.settle):
		return nil
	}
}
