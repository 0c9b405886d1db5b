package ota

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/relaylink/relaylink/internal/actuator"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// Prefix is the simple-form marker of an update request.
const Prefix = "OTA:"

// marker is the required "type" value of the structured form.
const marker = "ota"

// Request is a matched update instruction.
type Request struct {
	URL string
	// MD5 is the optional integrity checksum of the image.
	MD5 string
}

// structuredMessage is the JSON wire form of an update request.
type structuredMessage struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	MD5  string `json:"md5"`
	Chip string `json:"chip"`
}

// ParseMessage inspects an inbound message for an update request.
//
// handled reports whether the message was consumed by the dispatcher; when
// it is false the message belongs to normal session handling. A consumed
// message with a nil request is acknowledged-ignored (chip mismatch, or a
// structured request without a URL): no update starts, no state changes.
func ParseMessage(msg string, identity string) (req *Request, handled bool) {
	if strings.HasPrefix(msg, Prefix) {
		url := strings.TrimSpace(msg[len(Prefix):])
		if url == "" {
			return nil, false
		}
		return &Request{URL: url}, true
	}

	if !strings.HasPrefix(msg, "{") {
		return nil, false
	}

	var sm structuredMessage
	if err := json.Unmarshal([]byte(msg), &sm); err != nil {
		// Malformed payloads fall through to normal handling.
		return nil, false
	}
	if sm.Type != marker {
		return nil, false
	}

	if chip := strings.TrimSpace(sm.Chip); chip != "" && chip != identity {
		logging.Info("Update ignored: board mismatch",
			zap.String("want", chip),
			zap.String("have", identity),
		)
		return nil, true
	}

	url := strings.TrimSpace(sm.URL)
	if url == "" {
		logging.Warn("Update request missing url")
		return nil, true
	}

	return &Request{URL: url, MD5: strings.TrimSpace(sm.MD5)}, true
}

// SessionCloser tears the active session down cleanly before an update.
type SessionCloser interface {
	Teardown()
}

// Dispatcher filters inbound session messages for update requests and runs
// matched updates through the transport.
type Dispatcher struct {
	// Identity is the running board's tag, matched against "chip".
	Identity string

	Session   SessionCloser
	Output    actuator.Output
	Transport Transport
}

// Dispatch offers a message to the dispatcher. It reports whether the
// message was consumed. Matched updates run synchronously; on anything but
// a successful update the caller's control loop resumes and the reconnect
// path brings the session back on its own pace.
func (d *Dispatcher) Dispatch(ctx context.Context, msg string) bool {
	req, handled := ParseMessage(msg, d.Identity)
	if !handled {
		return false
	}
	if req == nil {
		return true
	}

	logging.Info("Update requested", zap.String("url", req.URL))

	d.Session.Teardown()
	if err := d.Output.Set(false); err != nil {
		logging.Warn("Failed to deactivate output before update", zap.Error(err))
	}

	outcome, err := d.Transport.Apply(ctx, *req)
	switch outcome {
	case Applied:
		// Restart is initiated by the transport; nothing left to do here.
		logging.Info("Update applied, restart expected")
	case NoUpdate:
		logging.Info("Update service reported no update")
	default:
		logging.Error("Update failed", zap.Error(err))
	}
	return true
}
