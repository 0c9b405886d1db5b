package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store := NewRecordStore(path)

	rec := ConfigRecord{
		EndpointURL: "wss://svc.example/ws",
		AuthToken:   "secret-token",
		EAPIdentity: "device01",
		EAPPassword: "eap-secret",
	}
	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !found {
		t.Fatal("Load() found = false, want true")
	}
	if got != rec {
		t.Errorf("Load() = %+v, want %+v", got, rec)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("record file permissions = %o, want 600", perm)
	}
}

func TestRecordStoreMissingFile(t *testing.T) {
	store := NewRecordStore(filepath.Join(t.TempDir(), "nope", "config.json"))

	rec, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if found {
		t.Error("Load() found = true for missing file")
	}
	if rec != (ConfigRecord{}) {
		t.Errorf("Load() = %+v, want zero record", rec)
	}
}

func TestRecordStoreMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, _, err := NewRecordStore(path).Load()
	if err == nil {
		t.Error("Load() expected error for malformed file")
	}
}

func TestRecordStoreDefaultPath(t *testing.T) {
	if got := NewRecordStore("").Path; got != DefaultRecordPath {
		t.Errorf("NewRecordStore(\"\").Path = %q, want %q", got, DefaultRecordPath)
	}
}

func TestRecordRedacted(t *testing.T) {
	rec := ConfigRecord{
		EndpointURL: "wss://svc.example/ws",
		AuthToken:   "secret-token",
		EAPIdentity: "device01",
		EAPPassword: "eap-secret",
	}

	red := rec.Redacted()
	if red.AuthToken == rec.AuthToken {
		t.Error("Redacted() kept the auth token")
	}
	if red.EAPPassword == rec.EAPPassword {
		t.Error("Redacted() kept the EAP password")
	}
	if red.EndpointURL != rec.EndpointURL || red.EAPIdentity != rec.EAPIdentity {
		t.Error("Redacted() changed non-secret fields")
	}

	// Empty secrets stay empty rather than gaining a placeholder.
	empty := ConfigRecord{EndpointURL: "ws://x/"}.Redacted()
	if empty.AuthToken != "" || empty.EAPPassword != "" {
		t.Errorf("Redacted() of empty secrets = %+v, want empty fields", empty)
	}
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid",
			input: `{"wsUrl":"wss://svc.example/ws","authToken":"tok"}`,
		},
		{
			name:  "valid with enterprise fields",
			input: `{"wsUrl":"ws://x/","authToken":"t","eapIdentity":"id","eapPassword":"pw"}`,
		},
		{
			name:    "not json",
			input:   `CONFIG`,
			wantErr: true,
		},
		{
			name:    "missing token",
			input:   `{"wsUrl":"wss://svc.example/ws"}`,
			wantErr: true,
		},
		{
			name:  "unknown keys ignored",
			input: `{"wsUrl":"ws://x/","authToken":"t","firmware":"1.2.0"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseRecord(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecord(%q) error = %v", tt.input, err)
			}
			if !rec.HasEndpoint() {
				t.Errorf("ParseRecord(%q) = %+v, missing endpoint", tt.input, rec)
			}
		})
	}
}

func TestHasEnterprise(t *testing.T) {
	if (ConfigRecord{EAPIdentity: "id"}).HasEnterprise() {
		t.Error("HasEnterprise() = true with identity only")
	}
	if (ConfigRecord{EAPPassword: "pw"}).HasEnterprise() {
		t.Error("HasEnterprise() = true with password only")
	}
	if !(ConfigRecord{EAPIdentity: "id", EAPPassword: "pw"}).HasEnterprise() {
		t.Error("HasEnterprise() = false with both set")
	}
}

func TestRecordJSONFieldNames(t *testing.T) {
	// The on-disk format is shared with other tooling; the field names are
	// part of the contract.
	store := NewRecordStore(filepath.Join(t.TempDir(), "config.json"))
	if err := store.Save(ConfigRecord{EndpointURL: "ws://x/", AuthToken: "t"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(store.Path)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"wsUrl"`, `"authToken"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("saved record missing field %s: %s", field, data)
		}
	}
}
