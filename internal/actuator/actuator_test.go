package actuator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemory(t *testing.T) {
	m := NewMemory()

	if m.State() {
		t.Error("new Memory output should be off")
	}
	if m.Transitions() != 0 {
		t.Errorf("Transitions() = %d, want 0", m.Transitions())
	}

	if err := m.Set(true); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}
	if !m.State() {
		t.Error("State() = false after Set(true)")
	}

	if err := m.Set(false); err != nil {
		t.Fatalf("Set(false) error = %v", err)
	}
	if m.State() {
		t.Error("State() = true after Set(false)")
	}
	if m.Transitions() != 2 {
		t.Errorf("Transitions() = %d, want 2", m.Transitions())
	}
}

func TestGPIOSysfs(t *testing.T) {
	// Emulate the sysfs layout in a temp directory.
	base := t.TempDir()
	lineDir := filepath.Join(base, "gpio5")
	if err := os.MkdirAll(lineDir, 0o755); err != nil {
		t.Fatal(err)
	}

	g, err := newGPIOAt(5, base)
	if err != nil {
		t.Fatalf("newGPIOAt() error = %v", err)
	}

	direction, err := os.ReadFile(filepath.Join(lineDir, "direction"))
	if err != nil {
		t.Fatal(err)
	}
	if string(direction) != "out" {
		t.Errorf("direction = %q, want out", direction)
	}

	// Initialized low.
	value, err := os.ReadFile(filepath.Join(lineDir, "value"))
	if err != nil {
		t.Fatal(err)
	}
	if string(value) != "0" {
		t.Errorf("initial value = %q, want 0", value)
	}

	if err := g.Set(true); err != nil {
		t.Fatalf("Set(true) error = %v", err)
	}
	value, _ = os.ReadFile(filepath.Join(lineDir, "value"))
	if string(value) != "1" {
		t.Errorf("value after Set(true) = %q, want 1", value)
	}
	if !g.State() {
		t.Error("State() = false after Set(true)")
	}
}

func TestGPIOMissingLine(t *testing.T) {
	// No gpioN directory and no writable export file: construction fails.
	if _, err := newGPIOAt(7, filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("newGPIOAt() expected error for missing sysfs tree")
	}
}
