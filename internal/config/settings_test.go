package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.WifiConnectTries != 4 {
		t.Errorf("WifiConnectTries = %d, want 4", s.WifiConnectTries)
	}
	if s.WifiTryTimeout != 8*time.Second {
		t.Errorf("WifiTryTimeout = %v, want 8s", s.WifiTryTimeout)
	}
	if s.MaxAuthFailures != 3 {
		t.Errorf("MaxAuthFailures = %d, want 3", s.MaxAuthFailures)
	}
	if s.ReconnectInterval != 5*time.Second {
		t.Errorf("ReconnectInterval = %v, want 5s", s.ReconnectInterval)
	}
	if s.RequireAuthForActuation {
		t.Error("RequireAuthForActuation should default to false (observed device behavior)")
	}
	if s.Board != "rev-a" {
		t.Errorf("Board = %q, want rev-a", s.Board)
	}
}

func TestLoadSettingsFromMissingFile(t *testing.T) {
	s, err := LoadSettingsFrom(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("missing file should yield defaults, got %+v", s)
	}
}

func TestLoadSettingsFromPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "max_auth_failures: 5\nrequire_auth_for_actuation: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettingsFrom(path)
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if s.MaxAuthFailures != 5 {
		t.Errorf("MaxAuthFailures = %d, want 5", s.MaxAuthFailures)
	}
	if !s.RequireAuthForActuation {
		t.Error("RequireAuthForActuation = false, want true")
	}
	// Unset fields fall back to defaults.
	if s.WifiConnectTries != DefaultWifiConnectTries {
		t.Errorf("WifiConnectTries = %d, want default %d", s.WifiConnectTries, DefaultWifiConnectTries)
	}
	if s.HeartbeatInterval != DefaultHeartbeatInterval {
		t.Errorf("HeartbeatInterval = %v, want default %v", s.HeartbeatInterval, DefaultHeartbeatInterval)
	}
	// Discovery stays on when the file does not mention it.
	if s.DiscoveryDisabled {
		t.Error("DiscoveryDisabled = true for a file that omits it")
	}
	if s.DiscoveryPort != DefaultDiscoveryPort {
		t.Errorf("DiscoveryPort = %d, want default %d", s.DiscoveryPort, DefaultDiscoveryPort)
	}
}

func TestLoadSettingsDiscoveryDisable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("discovery_disabled: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettingsFrom(path)
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if !s.DiscoveryDisabled {
		t.Error("DiscoveryDisabled = false, want true")
	}
}

func TestLoadSettingsFromMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSettingsFrom(path); err == nil {
		t.Error("LoadSettingsFrom() expected error for malformed YAML")
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.yaml")

	s := DefaultSettings()
	s.Board = "rev-b"
	s.Defaults = BakedDefaults{
		EndpointURL: "wss://svc.example/ws",
		AuthToken:   "tok",
		WifiSSID:    "factory-net",
	}

	if err := SaveSettingsTo(path, s); err != nil {
		t.Fatalf("SaveSettingsTo() error = %v", err)
	}

	got, err := LoadSettingsFrom(path)
	if err != nil {
		t.Fatalf("LoadSettingsFrom() error = %v", err)
	}
	if got != s {
		t.Errorf("round trip = %+v, want %+v", got, s)
	}
}

func TestBakedDefaults(t *testing.T) {
	var d BakedDefaults
	if d.HasWifi() || d.HasAppConfig() {
		t.Error("zero BakedDefaults should have nothing")
	}

	d.WifiSSID = "net"
	if !d.HasWifi() {
		t.Error("HasWifi() = false with SSID set (open networks allowed)")
	}

	d.EndpointURL = "ws://x/"
	if d.HasAppConfig() {
		t.Error("HasAppConfig() = true without token")
	}
	d.AuthToken = "t"
	if !d.HasAppConfig() {
		t.Error("HasAppConfig() = false with URL and token")
	}
}

func TestGetConfigDir(t *testing.T) {
	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if dir == "" {
		t.Fatal("GetConfigDir() returned empty string")
	}
	if filepath.Base(dir) != appName {
		t.Errorf("GetConfigDir() = %q, want a %q directory", dir, appName)
	}
}
