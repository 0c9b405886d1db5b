package session

import (
	"context"
	"strings"
	"time"

	"github.com/relaylink/relaylink/internal/actuator"
	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/endpoint"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// EventKind classifies transport events delivered to the controller.
type EventKind int

const (
	// EventMessage is an inbound text frame.
	EventMessage EventKind = iota
	// EventDropped signals the transport is gone.
	EventDropped
)

// Event is delivered by the transport's read pump to the control loop. All
// handling happens on the loop goroutine.
type Event struct {
	Kind EventKind
	Text string
}

// Conn is an open session transport.
type Conn interface {
	WriteText(msg string) error
	Close() error
}

// Dialer establishes a session transport against a parsed endpoint. The
// returned channel carries inbound events; the transport closes it after
// delivering EventDropped.
type Dialer interface {
	Dial(ctx context.Context, ep endpoint.Endpoint) (Conn, <-chan Event, error)
}

// UpdateFilter is offered every inbound message before normal handling.
// It reports whether the message was consumed.
type UpdateFilter interface {
	Dispatch(ctx context.Context, msg string) bool
}

// Reconfigurer runs one interactive reconfiguration cycle (endpoint, token,
// credentials) and reports whether anything was submitted.
type Reconfigurer interface {
	Reconfigure(ctx context.Context) bool
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	// Record returns the current configuration record. Read fresh on every
	// setup so a reconfiguration takes effect without restart.
	Record func() config.ConfigRecord

	Dialer  Dialer
	Updates UpdateFilter
	Output  actuator.Output
	Portal  Reconfigurer

	// MaxAuthFailures is the rejection threshold that triggers one
	// reconfiguration cycle.
	MaxAuthFailures int
	// RequireAuthForActuation gates the 1/0 tokens behind authentication.
	// Off by default: tokens act in any session state.
	RequireAuthForActuation bool
	// ReconnectInterval is the fixed pacing between setup attempts.
	ReconnectInterval time.Duration
}

// Controller owns the session state machine. It is not safe for concurrent
// use: all methods must be called from the single control-loop goroutine.
type Controller struct {
	cfg   ControllerConfig
	clock *ReconnectClock

	state        State
	authFailures int
	conn         Conn
	events       <-chan Event
}

// NewController returns an Idle controller.
func NewController(cfg ControllerConfig) *Controller {
	return &Controller{
		cfg:   cfg,
		clock: NewReconnectClock(cfg.ReconnectInterval),
	}
}

// State returns the current connection state.
func (c *Controller) State() State { return c.state }

// AuthFailures returns the current rejection count.
func (c *Controller) AuthFailures() int { return c.authFailures }

// Events returns the active transport's event channel, or nil when there is
// no transport. A nil channel never fires in a select, which is exactly the
// behavior the control loop wants.
func (c *Controller) Events() <-chan Event { return c.events }

// Tick is the scheduler: when the session is down and the pacing interval
// has elapsed, stamp the clock and re-run setup.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	if c.state.Connected() {
		return
	}
	if !c.clock.Due(now) {
		return
	}
	c.clock.Stamp(now)
	c.Setup(ctx)
}

// Setup runs one session establishment attempt: parse the endpoint fresh,
// dial, and send the authentication message. A malformed endpoint URL
// escalates straight to the portal.
func (c *Controller) Setup(ctx context.Context) {
	c.Teardown()

	rec := c.cfg.Record()
	ep, err := endpoint.Parse(rec.EndpointURL)
	if err != nil {
		logging.Warn("Bad endpoint URL, requesting reconfiguration", zap.Error(err))
		c.cfg.Portal.Reconfigure(ctx)
		return
	}

	c.state = Connecting
	logging.LogSessionEvent(ep.String(), "connecting")

	conn, events, err := c.cfg.Dialer.Dial(ctx, ep)
	if err != nil {
		logging.Debug("Session handshake failed", zap.String("endpoint", ep.String()), zap.Error(err))
		c.state = Idle
		return
	}

	c.conn = conn
	c.events = events
	c.state = Open
	c.authFailures = 0
	logging.LogSessionEvent(ep.String(), "open")

	if err := conn.WriteText(authPrefix + rec.AuthToken); err != nil {
		logging.Warn("Failed to send authentication", zap.Error(err))
		c.Teardown()
	}
}

// Teardown closes the active transport, if any, and returns to Idle. Safe
// to call in any state.
func (c *Controller) Teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.events = nil
	if c.state.Connected() {
		logging.LogSessionEvent("", "closed")
	}
	c.state = Idle
}

// HandleEvent processes one transport event on the control loop goroutine.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventDropped:
		// Logged on the transition, not per tick.
		if c.state.Connected() {
			logging.LogSessionEvent("", "dropped")
		}
		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}
		c.events = nil
		c.state = Idle

	case EventMessage:
		c.handleMessage(ctx, strings.TrimSpace(ev.Text))
	}
}

func (c *Controller) handleMessage(ctx context.Context, msg string) {
	logging.LogSessionMessage("received", msg)

	// Update requests take precedence over everything else.
	if c.cfg.Updates.Dispatch(ctx, msg) {
		return
	}

	switch msg {
	case tokenOK:
		if c.state != Authenticated {
			logging.LogSessionEvent("", "authenticated")
		}
		c.state = Authenticated
		c.authFailures = 0

	case tokenNoAuth:
		if c.state == Authenticated {
			c.state = Open
		}
		c.authFailures++
		logging.Warn("Authentication rejected",
			zap.Int("failures", c.authFailures),
			zap.Int("threshold", c.cfg.MaxAuthFailures),
		)
		if c.authFailures >= c.cfg.MaxAuthFailures {
			c.authFailures = 0
			c.cfg.Portal.Reconfigure(ctx)
			c.Setup(ctx)
		}

	case tokenOn, tokenOff:
		if c.cfg.RequireAuthForActuation && c.state != Authenticated {
			logging.Warn("Actuation token before authentication, dropped",
				zap.String("token", msg),
			)
			return
		}
		if err := c.cfg.Output.Set(msg == tokenOn); err != nil {
			logging.Error("Failed to drive output", zap.Error(err))
		}

	default:
		logging.Debug("Unhandled session token", zap.String("token", msg))
	}
}
