// Package session owns the command-service session lifecycle.
//
// # State machine
//
// The Controller moves through Idle → Connecting → Open → Authenticated.
// Open and Authenticated both count as connected for scheduling purposes;
// only Authenticated is fully functional. A transport drop from any state
// returns to Idle. Every transition happens on the owning control loop
// goroutine: the websocket read pump only forwards events into a channel,
// so exactly one writer ever touches the state, the auth-failure counter,
// or the configuration record.
//
// # Protocol
//
// On handshake success the controller sends a single "AUTH:<token>" frame.
// "OK" acknowledges authentication, "NOAUTH" rejects it; rejections
// accumulate and at the configured threshold trigger exactly one
// reconfiguration cycle before the session setup restarts. The tokens "1"
// and "0" drive the actuator output. Every inbound frame is offered to the
// update dispatcher before any of this interpretation.
//
// # Reconnect pacing
//
// The ReconnectClock gates setup attempts to a fixed interval. No backoff,
// no jitter: the pacing is deliberately constant.
//
// # Heartbeat
//
// The websocket transport pings the peer on a fixed interval and counts
// missed pongs; past the retry budget it force-closes the connection,
// which surfaces as an ordinary transport drop.
package session
