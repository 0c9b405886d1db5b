// Package actuator is the output boundary of the agent.
//
// The command service drives a single on/off output. How that output
// reaches hardware is platform plumbing behind the Output interface; the
// session logic only ever calls Set. A sysfs-backed GPIO implementation is
// provided for Linux boards, and a Memory double for tests and dry runs.
package actuator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Output is a single actuator line.
type Output interface {
	// Set drives the output. Active high.
	Set(on bool) error
	// State reports the last successfully applied value.
	State() bool
}

// Memory is an in-process Output for tests and the --dry-run mode.
type Memory struct {
	mu sync.Mutex
	on bool
	// Transitions counts successful Set calls, useful for asserting that
	// a message produced zero side effects.
	transitions int
}

// NewMemory returns a Memory output, initially off.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Set(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	m.transitions++
	return nil
}

func (m *Memory) State() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}

// Transitions returns the number of Set calls seen so far.
func (m *Memory) Transitions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions
}

// GPIO drives a line through the Linux sysfs GPIO interface.
type GPIO struct {
	line int
	base string // sysfs root, overridable in tests

	mu sync.Mutex
	on bool
}

// NewGPIO exports the given line and configures it as an output, driven low.
func NewGPIO(line int) (*GPIO, error) {
	return newGPIOAt(line, "/sys/class/gpio")
}

func newGPIOAt(line int, base string) (*GPIO, error) {
	g := &GPIO{line: line, base: base}

	// Export is idempotent from our point of view: EBUSY means the line is
	// already exported.
	exportPath := filepath.Join(base, "export")
	if err := os.WriteFile(exportPath, []byte(fmt.Sprintf("%d", line)), 0o200); err != nil && !os.IsExist(err) {
		if _, statErr := os.Stat(g.dir()); statErr != nil {
			return nil, fmt.Errorf("failed to export GPIO line %d: %w", line, err)
		}
	}

	if err := os.WriteFile(filepath.Join(g.dir(), "direction"), []byte("out"), 0o644); err != nil {
		return nil, fmt.Errorf("failed to set GPIO line %d direction: %w", line, err)
	}
	if err := g.Set(false); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GPIO) dir() string {
	return filepath.Join(g.base, fmt.Sprintf("gpio%d", g.line))
}

func (g *GPIO) Set(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	value := "0"
	if on {
		value = "1"
	}
	if err := os.WriteFile(filepath.Join(g.dir(), "value"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to drive GPIO line %d: %w", g.line, err)
	}
	g.on = on
	return nil
}

func (g *GPIO) State() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}
