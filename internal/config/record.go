package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultRecordPath is the fixed well-known location of the device record.
const DefaultRecordPath = "/var/lib/relaylink/config.json"

// redactedPlaceholder replaces secret fields in redacted output.
const redactedPlaceholder = "<redacted>"

// ConfigRecord is the persisted device configuration. Field names match the
// on-disk JSON format of the device's config.json.
type ConfigRecord struct {
	// EndpointURL is the command-service URL (ws:// or wss://).
	EndpointURL string `json:"wsUrl"`
	// AuthToken authenticates the session after connect.
	AuthToken string `json:"authToken"`
	// EAPIdentity and EAPPassword enable enterprise (802.1X) network
	// authentication when both are non-empty.
	EAPIdentity string `json:"eapIdentity,omitempty"`
	EAPPassword string `json:"eapPassword,omitempty"`
}

// HasEndpoint reports whether the record names both an endpoint and a token.
func (r ConfigRecord) HasEndpoint() bool {
	return r.EndpointURL != "" && r.AuthToken != ""
}

// HasEnterprise reports whether enterprise network credentials are set.
func (r ConfigRecord) HasEnterprise() bool {
	return r.EAPIdentity != "" && r.EAPPassword != ""
}

// Redacted returns a copy with secret fields masked, for operator-facing
// output such as the administrative GET_CONFIG command.
func (r ConfigRecord) Redacted() ConfigRecord {
	out := r
	if out.AuthToken != "" {
		out.AuthToken = redactedPlaceholder
	}
	if out.EAPPassword != "" {
		out.EAPPassword = redactedPlaceholder
	}
	return out
}

// ParseRecord decodes a JSON document into a ConfigRecord and checks that it
// is usable. Used by the administrative CONFIG command. Unknown keys are
// ignored so newer provisioning tools can carry extra fields.
func ParseRecord(data []byte) (ConfigRecord, error) {
	var r ConfigRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return ConfigRecord{}, fmt.Errorf("invalid config record: %w", err)
	}
	if !r.HasEndpoint() {
		return ConfigRecord{}, fmt.Errorf("invalid config record: wsUrl and authToken are required")
	}
	return r, nil
}

// RecordStore persists the ConfigRecord at a fixed path.
type RecordStore struct {
	// Path of the JSON record file. Empty means DefaultRecordPath.
	Path string
}

// NewRecordStore creates a store for the given path, falling back to the
// well-known default when path is empty.
func NewRecordStore(path string) *RecordStore {
	if path == "" {
		path = DefaultRecordPath
	}
	return &RecordStore{Path: path}
}

// Load reads the stored record. A missing or unreadable file is reported as
// (zero record, false, nil): the caller runs on defaults. Only genuinely
// malformed content yields an error, and callers treat that the same way.
func (s *RecordStore) Load() (ConfigRecord, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return ConfigRecord{}, false, nil
		}
		return ConfigRecord{}, false, fmt.Errorf("failed to read config record: %w", err)
	}

	var r ConfigRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return ConfigRecord{}, false, fmt.Errorf("failed to parse config record: %w", err)
	}
	return r, true, nil
}

// Save writes the record atomically: write to a temp file in the same
// directory, then rename over the target.
func (s *RecordStore) Save(r ConfigRecord) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config record: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp record file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp record file: %w", err)
	}

	// Token and EAP secret live in this file.
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set record permissions: %w", err)
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config record: %w", err)
	}
	return nil
}
