// Package config manages the two configuration layers of the relaylink agent.
//
// # Device record
//
// The ConfigRecord holds what the device needs to reach its command service:
// the endpoint URL, the auth token, and optional enterprise (802.1X) network
// credentials. It is persisted as JSON at a fixed well-known path (default
// /var/lib/relaylink/config.json) and is the only state the agent mutates at
// runtime. The record is created at boot from the configured defaults,
// overlaid by the stored file if present, and replaced wholesale by the
// configuration portal or an administrative CONFIG command. Every
// replacement is persisted immediately; the administrative path additionally
// restarts the agent so the in-memory and persisted record cannot diverge.
//
// # Agent settings
//
// Settings are operator tunables (retry counts, timeouts, board variant,
// actuation policy) stored as YAML under the OS-specific config directory:
//   - Linux: $XDG_CONFIG_HOME/relaylink/settings.yaml or $HOME/.config/relaylink/settings.yaml
//   - macOS: $HOME/.config/relaylink/settings.yaml
//   - Windows: %LOCALAPPDATA%\relaylink\settings.yaml
//
// Missing settings fall back to defaults, so a partial file is valid.
//
// # Persistence errors
//
// A store that cannot be read is treated as "no saved configuration": the
// agent runs on defaults and escalates to the portal if they are unusable.
// Persistence failures are never fatal.
package config
