package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// Command verbs and response lines.
const (
	cmdConfigPrefix = "CONFIG:"
	cmdGetConfig    = "GET_CONFIG"
	cmdReboot       = "REBOOT"
	cmdPortal       = "PORTAL"
	cmdPing         = "PING"

	respConfigSaved = "OK:CONFIG_SAVED"
	respInvalidJSON = "ERR:INVALID_JSON"
	respSaveFailed  = "ERR:SAVE_FAILED"
	respPong        = "PONG"
	respUnknown     = "ERR:UNKNOWN_CMD"
)

// RecordStore persists configuration records.
type RecordStore interface {
	Load() (config.ConfigRecord, bool, error)
	Save(config.ConfigRecord) error
}

// Reconfigurer runs one interactive reconfiguration cycle.
type Reconfigurer interface {
	Reconfigure(ctx context.Context) bool
}

// Channel serves the administrative line protocol on a byte stream.
type Channel struct {
	Store  RecordStore
	Portal Reconfigurer

	// Restart relaunches the agent process. Called after a saved CONFIG
	// and on REBOOT, once the response line has been written.
	Restart func()
}

// Serve reads commands until the stream ends or ctx is cancelled. Stream
// errors end the loop; individual bad commands do not.
func (c *Channel) Serve(ctx context.Context, rw io.ReadWriter) error {
	scanner := bufio.NewScanner(rw)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		resp, restart := c.handle(ctx, line)
		if _, err := fmt.Fprintln(rw, resp); err != nil {
			return fmt.Errorf("admin: write response: %w", err)
		}
		if restart && c.Restart != nil {
			c.Restart()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("admin: read command: %w", err)
	}
	return nil
}

// handle processes one command line and returns the response plus whether
// the agent should restart after the response is flushed.
func (c *Channel) handle(ctx context.Context, line string) (resp string, restart bool) {
	if strings.HasPrefix(line, cmdConfigPrefix) {
		return c.saveConfig(strings.TrimPrefix(line, cmdConfigPrefix))
	}

	switch line {
	case cmdGetConfig:
		return c.currentConfig(), false
	case cmdReboot:
		logging.Info("Restart requested over admin channel")
		return "OK", true
	case cmdPortal:
		if c.Portal != nil {
			c.Portal.Reconfigure(ctx)
		}
		return "OK", false
	case cmdPing:
		return respPong, false
	default:
		logging.Debug("Unknown admin command", zap.String("command", line))
		return respUnknown, false
	}
}

func (c *Channel) saveConfig(payload string) (string, bool) {
	rec, err := config.ParseRecord([]byte(payload))
	if err != nil {
		logging.Warn("Rejected configuration payload", zap.Error(err))
		return respInvalidJSON, false
	}
	if err := c.Store.Save(rec); err != nil {
		logging.Error("Failed to persist configuration", zap.Error(err))
		return respSaveFailed, false
	}
	logging.Info("Configuration saved over admin channel")
	return respConfigSaved, true
}

// currentConfig renders the stored record with secrets redacted. A missing
// or unreadable record renders as an empty record rather than an error so
// the channel stays scriptable.
func (c *Channel) currentConfig() string {
	rec, _, err := c.Store.Load()
	if err != nil {
		logging.Warn("Failed to load configuration for GET_CONFIG", zap.Error(err))
		rec = config.ConfigRecord{}
	}
	out, err := json.Marshal(rec.Redacted())
	if err != nil {
		return respUnknown
	}
	return string(out)
}
