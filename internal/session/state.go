package session

import "fmt"

// State is the connection state of the session.
type State int

const (
	// Idle: no session. The scheduler decides when to try again.
	Idle State = iota
	// Connecting: a handshake is in flight.
	Connecting
	// Open: handshake done, authentication sent, not yet acknowledged.
	Open
	// Authenticated: the peer accepted the token.
	Authenticated
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Connected reports whether a transport exists (Open or Authenticated).
func (s State) Connected() bool {
	return s == Open || s == Authenticated
}

// Wire tokens of the session protocol.
const (
	authPrefix  = "AUTH:"
	tokenOK     = "OK"
	tokenNoAuth = "NOAUTH"
	tokenOn     = "1"
	tokenOff    = "0"
)
