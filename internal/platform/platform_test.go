package platform

import "testing"

func TestSelect(t *testing.T) {
	tests := []struct {
		name       string
		identity   string
		line       int
		enterprise bool
	}{
		{name: BoardRevA, identity: "rev-a", line: 5, enterprise: false},
		{name: BoardRevB, identity: "rev-b", line: 2, enterprise: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps, err := Select(tt.name)
			if err != nil {
				t.Fatalf("Select(%q) error = %v", tt.name, err)
			}
			if caps.Identity() != tt.identity {
				t.Errorf("Identity() = %q, want %q", caps.Identity(), tt.identity)
			}
			if caps.ActuatorLine() != tt.line {
				t.Errorf("ActuatorLine() = %d, want %d", caps.ActuatorLine(), tt.line)
			}
			if caps.SupportsEnterprise() != tt.enterprise {
				t.Errorf("SupportsEnterprise() = %v, want %v", caps.SupportsEnterprise(), tt.enterprise)
			}
		})
	}
}

func TestSelectUnknown(t *testing.T) {
	if _, err := Select("rev-z"); err == nil {
		t.Error("Select(\"rev-z\") expected error")
	}
}
