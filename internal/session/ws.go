package session

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/relaylink/relaylink/internal/endpoint"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Maximum message size allowed from the peer. Command tokens are tiny;
	// even a structured update request fits comfortably.
	maxMessageSize = 8192

	// Inbound event buffer between the read pump and the control loop.
	eventBuffer = 16
)

// WSDialer establishes websocket sessions with heartbeat supervision.
type WSDialer struct {
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration

	// Heartbeat: a ping every Interval, a pong expected within Timeout,
	// and the transport force-closed after Retries consecutive misses.
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	HeartbeatRetries  int

	// TLSClientConfig applies to wss endpoints. Nil means library defaults
	// (full certificate verification).
	TLSClientConfig *tls.Config
}

// Dial implements Dialer.
func (d *WSDialer) Dial(ctx context.Context, ep endpoint.Endpoint) (Conn, <-chan Event, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		TLSClientConfig:  d.TLSClientConfig,
	}

	ws, resp, err := dialer.DialContext(ctx, ep.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, nil, err
	}

	c := &wsConn{
		ws:       ws,
		done:     make(chan struct{}),
		lastPong: time.Now(),
	}

	events := make(chan Event, eventBuffer)
	go c.readPump(events, d.readDeadline())
	go c.heartbeat(d.HeartbeatInterval, d.HeartbeatTimeout, d.HeartbeatRetries)

	return c, events, nil
}

// readDeadline is the most silence tolerated on the wire before the read
// side gives up on its own: a full heartbeat cycle including every retry.
func (d *WSDialer) readDeadline() time.Duration {
	return d.HeartbeatInterval + d.HeartbeatTimeout*time.Duration(d.HeartbeatRetries+1)
}

type wsConn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}

	pongMu   sync.Mutex
	lastPong time.Time
}

func (c *wsConn) WriteText(msg string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.ws.Close()
	})
	return err
}

func (c *wsConn) pongAge() time.Duration {
	c.pongMu.Lock()
	defer c.pongMu.Unlock()
	return time.Since(c.lastPong)
}

// readPump forwards inbound text frames to the control loop and delivers
// EventDropped exactly once when the transport dies.
func (c *wsConn) readPump(events chan<- Event, deadline time.Duration) {
	defer close(events)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
	c.ws.SetPongHandler(func(string) error {
		c.pongMu.Lock()
		c.lastPong = time.Now()
		c.pongMu.Unlock()
		return c.ws.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("Session read failed", zap.Error(err))
			}
			select {
			case events <- Event{Kind: EventDropped}:
			case <-c.done:
			}
			return
		}

		_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case events <- Event{Kind: EventMessage, Text: string(data)}:
		case <-c.done:
			return
		}
	}
}

// heartbeat pings the peer on a fixed interval and force-closes the
// transport after too many consecutive silent cycles.
func (c *wsConn) heartbeat(interval, timeout time.Duration, retries int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	misses := 0
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.pongAge() > interval+timeout {
				misses++
			} else {
				misses = 0
			}
			if misses > retries {
				logging.Warn("Heartbeat lost, dropping session",
					zap.Int("misses", misses),
				)
				_ = c.Close()
				return
			}

			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
			c.writeMu.Unlock()
			if err != nil {
				_ = c.Close()
				return
			}
		}
	}
}
