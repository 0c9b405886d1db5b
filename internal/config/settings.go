package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName      = "relaylink"
	settingsFile = "settings.yaml"
)

// Defaults for the agent tunables: four link tries of eight seconds each,
// three auth failures before the portal, five-second reconnect pacing, and
// a 15s/3s/2-miss session heartbeat.
const (
	DefaultWifiConnectTries  = 4
	DefaultWifiTryTimeout    = 8 * time.Second
	DefaultMaxAuthFailures   = 3
	DefaultReconnectInterval = 5 * time.Second
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultHeartbeatTimeout  = 3 * time.Second
	DefaultHeartbeatRetries  = 2
	DefaultPortalTimeout     = 180 * time.Second
	DefaultBoard             = "rev-a"
	DefaultDiscoveryPort     = 8787
)

// BakedDefaults are the configuration values compiled into a deployment:
// when they are all set no portal is needed on first boot.
type BakedDefaults struct {
	EndpointURL string `yaml:"endpoint_url"`
	AuthToken   string `yaml:"auth_token"`
	WifiSSID    string `yaml:"wifi_ssid"`
	// WifiPass may stay empty for open networks.
	WifiPass string `yaml:"wifi_pass"`
}

// HasWifi reports whether a default network is configured.
func (d BakedDefaults) HasWifi() bool { return d.WifiSSID != "" }

// HasAppConfig reports whether default endpoint and token are configured.
func (d BakedDefaults) HasAppConfig() bool { return d.EndpointURL != "" && d.AuthToken != "" }

// Settings are the operator tunables of the agent, stored as YAML in the
// OS config directory. Zero values are replaced by defaults on load.
type Settings struct {
	// Board selects the platform variant ("rev-a" or "rev-b").
	Board string `yaml:"board"`
	// RecordPath overrides the device record location (tests, containers).
	RecordPath string `yaml:"record_path,omitempty"`
	// ActuatorLine overrides the board's GPIO line when > 0.
	ActuatorLine int `yaml:"actuator_line,omitempty"`

	WifiConnectTries int           `yaml:"wifi_connect_tries"`
	WifiTryTimeout   time.Duration `yaml:"wifi_try_timeout"`

	MaxAuthFailures   int           `yaml:"max_auth_failures"`
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`

	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTimeout  time.Duration `yaml:"heartbeat_timeout"`
	HeartbeatRetries  int           `yaml:"heartbeat_retries"`

	PortalTimeout time.Duration `yaml:"portal_timeout"`

	// RequireAuthForActuation gates the 1/0 actuator tokens behind session
	// authentication. Off by default: tokens act in any session state.
	RequireAuthForActuation bool `yaml:"require_auth_for_actuation"`

	// DiscoveryDisabled turns off the mDNS announcement of the agent.
	// Phrased as a disable flag so the zero value keeps the default
	// behavior, like every other field here.
	DiscoveryDisabled bool `yaml:"discovery_disabled,omitempty"`
	DiscoveryPort     int  `yaml:"discovery_port"`

	// AdminDevice is the administrative channel: a serial device path such
	// as /dev/ttyS0, or "stdin". Empty disables the channel.
	AdminDevice string `yaml:"admin_device,omitempty"`

	Defaults BakedDefaults `yaml:"defaults"`
}

// DefaultSettings returns a Settings populated with the shipped defaults.
func DefaultSettings() Settings {
	return Settings{
		Board:             DefaultBoard,
		WifiConnectTries:  DefaultWifiConnectTries,
		WifiTryTimeout:    DefaultWifiTryTimeout,
		MaxAuthFailures:   DefaultMaxAuthFailures,
		ReconnectInterval: DefaultReconnectInterval,
		HeartbeatInterval: DefaultHeartbeatInterval,
		HeartbeatTimeout:  DefaultHeartbeatTimeout,
		HeartbeatRetries:  DefaultHeartbeatRetries,
		PortalTimeout:     DefaultPortalTimeout,
		DiscoveryPort:     DefaultDiscoveryPort,
	}
}

// normalize replaces zero values with defaults so a partial settings file
// is valid.
func (s *Settings) normalize() {
	def := DefaultSettings()
	if s.Board == "" {
		s.Board = def.Board
	}
	if s.WifiConnectTries <= 0 {
		s.WifiConnectTries = def.WifiConnectTries
	}
	if s.WifiTryTimeout <= 0 {
		s.WifiTryTimeout = def.WifiTryTimeout
	}
	if s.MaxAuthFailures <= 0 {
		s.MaxAuthFailures = def.MaxAuthFailures
	}
	if s.ReconnectInterval <= 0 {
		s.ReconnectInterval = def.ReconnectInterval
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = def.HeartbeatInterval
	}
	if s.HeartbeatTimeout <= 0 {
		s.HeartbeatTimeout = def.HeartbeatTimeout
	}
	if s.HeartbeatRetries <= 0 {
		s.HeartbeatRetries = def.HeartbeatRetries
	}
	if s.PortalTimeout <= 0 {
		s.PortalTimeout = def.PortalTimeout
	}
	if s.DiscoveryPort <= 0 {
		s.DiscoveryPort = def.DiscoveryPort
	}
}

// GetConfigDir returns the OS-appropriate configuration directory:
//   - Linux: $XDG_CONFIG_HOME/relaylink or $HOME/.config/relaylink
//   - macOS: $HOME/.config/relaylink
//   - Windows: %LOCALAPPDATA%\relaylink
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	default:
		// Linux, macOS and other Unix-like systems
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetSettingsPath returns the full path to the settings file.
func GetSettingsPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, settingsFile), nil
}

// LoadSettings reads the settings file, applying defaults for anything
// missing. A missing file yields pure defaults, not an error.
func LoadSettings() (Settings, error) {
	path, err := GetSettingsPath()
	if err != nil {
		return DefaultSettings(), err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom reads settings from an explicit path.
func LoadSettingsFrom(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), fmt.Errorf("failed to read settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to parse settings: %w", err)
	}
	s.normalize()
	return s, nil
}

// SaveSettingsTo writes settings atomically to the given path.
func SaveSettingsTo(path string, s Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp settings file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
