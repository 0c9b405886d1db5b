package link

import (
	"context"
	"errors"
	"time"

	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// ErrLinkDown is returned when every applicable branch of the credential
// chain has been exhausted for this cycle. Not fatal: the pacing scheduler
// retries on a later tick.
var ErrLinkDown = errors.New("link: all credential branches exhausted")

// Reconfigurer runs one interactive reconfiguration cycle. It returns the
// newly entered link credentials and whether the operator actually
// submitted anything; (zero, false) means cancellation.
type Reconfigurer interface {
	Reconfigure(ctx context.Context) (Credentials, bool)
}

// Sources supply the manager with the current credential material. Values
// are read fresh on every chain run so a reconfiguration takes effect
// without restarting the manager.
type Sources struct {
	// Enterprise returns the configured 802.1X credentials, or ok=false
	// when identity or secret is missing.
	Enterprise func() (EnterpriseCredentials, bool)
	// Defaults returns the baked-in default network, or ok=false when no
	// default SSID is configured.
	Defaults func() (Credentials, bool)
}

// Manager owns the credential chain.
type Manager struct {
	radio  Radio
	portal Reconfigurer
	src    Sources

	// EnterpriseCapable gates the enterprise branch (board capability).
	EnterpriseCapable bool
	// Tries per branch and the per-try timeout.
	Tries      int
	TryTimeout time.Duration
}

// NewManager wires a manager over the given radio and portal.
func NewManager(radio Radio, portal Reconfigurer, src Sources) *Manager {
	return &Manager{
		radio:      radio,
		portal:     portal,
		src:        src,
		Tries:      4,
		TryTimeout: 8 * time.Second,
	}
}

// IsUp reports the current link state.
func (m *Manager) IsUp(ctx context.Context) bool {
	return m.radio.IsUp(ctx)
}

// Ensure brings the link up, walking the credential chain if necessary.
// Returns ErrLinkDown when the cycle ends without a link; the caller
// retries on the next scheduler tick.
func (m *Manager) Ensure(ctx context.Context) error {
	if m.radio.IsUp(ctx) {
		return nil
	}

	if m.runChain(ctx) {
		return nil
	}

	// Chain exhausted: one portal cycle, then one more chain run with
	// whatever the operator supplied.
	logging.LogLinkEvent("portal_escalation")
	creds, submitted := m.portal.Reconfigure(ctx)
	if !submitted {
		logging.LogLinkEvent("portal_cancelled")
		return ErrLinkDown
	}

	if creds.SSID != "" && m.attempt(ctx, "portal", func(try context.Context) error {
		return m.radio.Connect(try, creds)
	}) {
		return nil
	}
	// The portal may have changed only the saved/default material.
	if m.runChain(ctx) {
		return nil
	}
	return ErrLinkDown
}

// runChain walks branches (a) through (c). Reports whether the link came up.
func (m *Manager) runChain(ctx context.Context) bool {
	if m.radio.HasSaved(ctx) {
		if m.attempt(ctx, "saved", m.radio.ConnectSaved) {
			return true
		}
	}

	if m.EnterpriseCapable {
		if eap, ok := m.src.Enterprise(); ok {
			if m.attempt(ctx, "enterprise", func(try context.Context) error {
				return m.radio.ConnectEnterprise(try, eap)
			}) {
				return true
			}
			// Do not leave the radio parked in an 802.1X auth state; it
			// blocks the plain branches below.
			if err := m.radio.DisableEnterprise(ctx); err != nil {
				logging.Warn("Failed to disable enterprise profile", zap.Error(err))
			}
		}
	}

	if def, ok := m.src.Defaults(); ok {
		if m.attempt(ctx, "default", func(try context.Context) error {
			return m.radio.Connect(try, def)
		}) {
			return true
		}
	}

	return false
}

// attempt runs one branch: up to Tries connect calls, each bounded by
// TryTimeout, with an explicit disconnect between tries.
func (m *Manager) attempt(ctx context.Context, branch string, connect func(context.Context) error) bool {
	for i := 1; i <= m.Tries; i++ {
		if ctx.Err() != nil {
			return false
		}
		logging.LogLinkEvent("connect_attempt",
			zap.String("branch", branch),
			zap.Int("try", i),
			zap.Int("tries", m.Tries),
		)

		tryCtx, cancel := context.WithTimeout(ctx, m.TryTimeout)
		err := connect(tryCtx)
		cancel()

		if err == nil && m.radio.IsUp(ctx) {
			logging.LogLinkEvent("link_up", zap.String("branch", branch))
			return true
		}
		if err != nil {
			logging.Debug("Link attempt failed",
				zap.String("branch", branch),
				zap.Int("try", i),
				zap.Error(err),
			)
		}

		// Never retry on top of a half-open association.
		if derr := m.radio.Disconnect(ctx); derr != nil {
			logging.Debug("Disconnect between tries failed", zap.Error(derr))
		}
	}
	return false
}
