package link

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// Credentials identify a plain (PSK or open) network.
type Credentials struct {
	SSID string
	// Passphrase may be empty for open networks.
	Passphrase string
}

// EnterpriseCredentials identify an 802.1X network.
type EnterpriseCredentials struct {
	SSID     string
	Identity string
	Secret   string
}

// Radio is the platform boundary for link control. All blocking calls are
// bounded by their context.
type Radio interface {
	// HasSaved reports whether the platform remembers a usable network.
	HasSaved(ctx context.Context) bool
	// ConnectSaved associates using the remembered network.
	ConnectSaved(ctx context.Context) error
	// Connect associates with an explicit SSID and passphrase.
	Connect(ctx context.Context, creds Credentials) error
	// ConnectEnterprise associates using 802.1X credentials.
	ConnectEnterprise(ctx context.Context, creds EnterpriseCredentials) error
	// DisableEnterprise removes the enterprise profile so the radio is not
	// stuck in an 802.1X auth state.
	DisableEnterprise(ctx context.Context) error
	// Disconnect tears the association down.
	Disconnect(ctx context.Context) error
	// IsUp reports whether the link is currently established.
	IsUp(ctx context.Context) bool
}

// enterpriseProfile is the connection profile name managed by the nmcli
// radio for 802.1X networks.
const enterpriseProfile = "relaylink-eap"

// commandRunner executes an external command and returns its combined
// output. Split out so tests can intercept nmcli invocations.
type commandRunner interface {
	run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s: %w (%s)", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// NMCliRadio controls the link through NetworkManager's CLI.
type NMCliRadio struct {
	// Interface is the wireless device name, e.g. "wlan0".
	Interface string

	runner commandRunner
}

// NewNMCliRadio returns a radio bound to the given wireless interface.
func NewNMCliRadio(iface string) *NMCliRadio {
	if iface == "" {
		iface = "wlan0"
	}
	return &NMCliRadio{Interface: iface, runner: execRunner{}}
}

func (r *NMCliRadio) HasSaved(ctx context.Context) bool {
	out, err := r.runner.run(ctx, "nmcli", "-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		logging.Debug("nmcli connection listing failed", zap.Error(err))
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		name, typ, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && typ == "802-11-wireless" && name != enterpriseProfile {
			return true
		}
	}
	return false
}

func (r *NMCliRadio) ConnectSaved(ctx context.Context) error {
	out, err := r.runner.run(ctx, "nmcli", "-t", "-f", "NAME,TYPE", "connection", "show")
	if err != nil {
		return fmt.Errorf("failed to list saved connections: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		name, typ, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found || typ != "802-11-wireless" || name == enterpriseProfile {
			continue
		}
		if _, err := r.runner.run(ctx, "nmcli", "connection", "up", "id", name, "ifname", r.Interface); err != nil {
			return fmt.Errorf("failed to bring up saved connection %q: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("no saved wireless connection")
}

func (r *NMCliRadio) Connect(ctx context.Context, creds Credentials) error {
	args := []string{"device", "wifi", "connect", creds.SSID, "ifname", r.Interface}
	if creds.Passphrase != "" {
		args = append(args, "password", creds.Passphrase)
	}
	if _, err := r.runner.run(ctx, "nmcli", args...); err != nil {
		return fmt.Errorf("failed to connect to %q: %w", creds.SSID, err)
	}
	return nil
}

func (r *NMCliRadio) ConnectEnterprise(ctx context.Context, creds EnterpriseCredentials) error {
	// Recreate the profile each time so stale credentials never linger.
	_, _ = r.runner.run(ctx, "nmcli", "connection", "delete", "id", enterpriseProfile)

	addArgs := []string{
		"connection", "add", "type", "wifi",
		"con-name", enterpriseProfile,
		"ifname", r.Interface,
		"ssid", creds.SSID,
		"wifi-sec.key-mgmt", "wpa-eap",
		"802-1x.eap", "peap",
		"802-1x.phase2-auth", "mschapv2",
		"802-1x.identity", creds.Identity,
		"802-1x.password", creds.Secret,
	}
	if _, err := r.runner.run(ctx, "nmcli", addArgs...); err != nil {
		return fmt.Errorf("failed to create enterprise profile: %w", err)
	}
	if _, err := r.runner.run(ctx, "nmcli", "connection", "up", "id", enterpriseProfile); err != nil {
		return fmt.Errorf("failed to bring up enterprise profile: %w", err)
	}
	return nil
}

func (r *NMCliRadio) DisableEnterprise(ctx context.Context) error {
	if _, err := r.runner.run(ctx, "nmcli", "connection", "delete", "id", enterpriseProfile); err != nil {
		return fmt.Errorf("failed to remove enterprise profile: %w", err)
	}
	return nil
}

func (r *NMCliRadio) Disconnect(ctx context.Context) error {
	if _, err := r.runner.run(ctx, "nmcli", "device", "disconnect", r.Interface); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", r.Interface, err)
	}
	return nil
}

func (r *NMCliRadio) IsUp(ctx context.Context) bool {
	out, err := r.runner.run(ctx, "nmcli", "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		logging.Debug("nmcli device status failed", zap.Error(err))
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		device, state, found := strings.Cut(strings.TrimSpace(line), ":")
		if found && device == r.Interface && state == "connected" {
			return true
		}
	}
	return false
}
