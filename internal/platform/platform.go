// Package platform describes the board the agent runs on.
//
// Two hardware revisions exist in the field. They differ in the GPIO line
// the actuator output is wired to and in whether the radio firmware supports
// enterprise (802.1X) authentication. Rather than branching on a build tag
// throughout the logic, everything that is board-specific hangs off the
// Capabilities interface, selected once at startup from the configured
// board name.
package platform

import "fmt"

// Capabilities is what the rest of the agent may ask about the board.
type Capabilities interface {
	// Identity is the board tag matched against the "chip" field of a
	// structured update request. An update carrying a different non-empty
	// tag is acknowledged but ignored.
	Identity() string
	// ActuatorLine is the GPIO line the actuator output is wired to.
	ActuatorLine() int
	// SupportsEnterprise reports whether the radio can do 802.1X.
	SupportsEnterprise() bool
}

type board struct {
	identity   string
	line       int
	enterprise bool
}

func (b board) Identity() string         { return b.identity }
func (b board) ActuatorLine() int        { return b.line }
func (b board) SupportsEnterprise() bool { return b.enterprise }

// Board names accepted by Select.
const (
	BoardRevA = "rev-a"
	BoardRevB = "rev-b"
)

// Select returns the Capabilities for a configured board name.
func Select(name string) (Capabilities, error) {
	switch name {
	case BoardRevA:
		// Original hardware: actuator on line 5, radio without 802.1X.
		return board{identity: BoardRevA, line: 5, enterprise: false}, nil
	case BoardRevB:
		// Later revision: actuator moved to line 2, enterprise-capable radio.
		return board{identity: BoardRevB, line: 2, enterprise: true}, nil
	default:
		return nil, fmt.Errorf("unknown board %q", name)
	}
}
