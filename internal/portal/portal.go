package portal

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/link"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

// RecordStore persists configuration records.
type RecordStore interface {
	Load() (config.ConfigRecord, bool, error)
	Save(config.ConfigRecord) error
}

// Portal runs bounded interactive reconfiguration cycles.
type Portal struct {
	Store RecordStore

	// Timeout bounds one cycle. Zero means no bound.
	Timeout time.Duration

	// Prefill supplies the network credentials shown in the form.
	Prefill func() link.Credentials

	// Commit receives every accepted submission after the record has been
	// saved. Typically wired to hand the credentials to the link layer.
	Commit func(Submission)

	// Input is the form's terminal, os.Stdin when nil.
	Input *os.File
}

// Reconfigure runs one cycle and reports whether a submission was accepted.
// Cancellation, timeout, a non-interactive input, and a dismissed form all
// report false.
func (p *Portal) Reconfigure(ctx context.Context) bool {
	sub, ok := p.RunAndSave(ctx)
	if ok && p.Commit != nil {
		p.Commit(sub)
	}
	return ok
}

// RunAndSave runs one cycle and persists an accepted submission. Callers
// that act on the returned credentials themselves use this instead of
// Reconfigure so Commit does not fire.
func (p *Portal) RunAndSave(ctx context.Context) (Submission, bool) {
	sub, ok, err := p.Run(ctx)
	if err != nil {
		logging.Warn("Reconfiguration cycle failed", zap.Error(err))
		return Submission{}, false
	}
	if !ok {
		return Submission{}, false
	}
	if err := p.Store.Save(sub.Record); err != nil {
		logging.Error("Failed to persist submitted configuration", zap.Error(err))
		return Submission{}, false
	}
	logging.Info("Configuration updated through portal")
	return sub, true
}

// Run presents the form and returns the submission. ok is false when
// nothing was submitted.
func (p *Portal) Run(ctx context.Context) (Submission, bool, error) {
	in := p.Input
	if in == nil {
		in = os.Stdin
	}
	if !term.IsTerminal(int(in.Fd())) {
		logging.Debug("No interactive terminal, skipping portal")
		return Submission{}, false, nil
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	rec, _, err := p.Store.Load()
	if err != nil {
		logging.Warn("Starting portal without stored record", zap.Error(err))
		rec = config.ConfigRecord{}
	}
	var creds link.Credentials
	if p.Prefill != nil {
		creds = p.Prefill()
	}

	prog := tea.NewProgram(
		newFormModel(rec, creds),
		tea.WithInput(in),
		tea.WithContext(ctx),
	)
	final, err := prog.Run()
	if err != nil {
		if ctx.Err() != nil {
			logging.Info("Portal cycle expired")
			return Submission{}, false, nil
		}
		return Submission{}, false, fmt.Errorf("portal: %w", err)
	}

	m, ok := final.(formModel)
	if !ok || !m.submitted {
		return Submission{}, false, nil
	}
	return m.result, true, nil
}
