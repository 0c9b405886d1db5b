package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaylink/relaylink/internal/actuator"
	"github.com/relaylink/relaylink/internal/admin"
	"github.com/relaylink/relaylink/internal/config"
	"github.com/relaylink/relaylink/internal/discovery"
	"github.com/relaylink/relaylink/internal/link"
	"github.com/relaylink/relaylink/internal/logging"
	"github.com/relaylink/relaylink/internal/ota"
	"github.com/relaylink/relaylink/internal/platform"
	"github.com/relaylink/relaylink/internal/portal"
	"github.com/relaylink/relaylink/internal/session"
	"github.com/relaylink/relaylink/internal/version"
)

// tickInterval drives the agent's periodic work: link supervision and
// session reconnect pacing. Finer than the reconnect interval so pacing
// stays accurate.
const tickInterval = time.Second

// firmwareTarget is where an applied update image lands for the boot
// script to pick up.
const firmwareTarget = "/var/lib/relaylink/firmware.next"

func runAgent(cmd *cobra.Command, args []string) error {
	if err := logging.InitializeFromEnv(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	settings, store, err := loadStore()
	if err != nil {
		return err
	}

	caps, err := platform.Select(settings.Board)
	if err != nil {
		return fmt.Errorf("failed to select board: %w", err)
	}
	logging.Info("Agent starting",
		zap.String("version", version.Version),
		zap.String("board", caps.Identity()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agent, err := buildAgent(settings, store, caps)
	if err != nil {
		return err
	}
	return agent.run(ctx)
}

// agent holds the wired components of a running instance.
type agent struct {
	settings config.Settings
	store    *config.RecordStore

	linkMgr *link.Manager
	ctrl    *session.Controller
	output  actuator.Output
	admin   *admin.Channel
	mdns    func() (*discovery.Announcement, error)

	// linkUp tracks the last observed link state so a loss is handled on
	// the transition, not on every tick of an outage.
	linkUp bool
}

func buildAgent(settings config.Settings, store *config.RecordStore, caps platform.Capabilities) (*agent, error) {
	seedRecord(settings, store)

	out := selectOutput(settings, caps)

	prt := &portal.Portal{
		Store:   store,
		Timeout: settings.PortalTimeout,
		Prefill: func() link.Credentials {
			return link.Credentials{
				SSID:       settings.Defaults.WifiSSID,
				Passphrase: settings.Defaults.WifiPass,
			}
		},
	}

	radio := link.NewNMCliRadio("")
	linkMgr := link.NewManager(radio, linkPortal{prt}, credentialSources(settings, store))
	linkMgr.EnterpriseCapable = caps.SupportsEnterprise()
	linkMgr.Tries = settings.WifiConnectTries
	linkMgr.TryTimeout = settings.WifiTryTimeout

	// A submitted portal form also carries network credentials; hand them
	// to the radio so the next link cycle can use them as saved material.
	prt.Commit = func(sub portal.Submission) {
		if sub.Credentials.SSID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), settings.WifiTryTimeout)
		defer cancel()
		if err := radio.Connect(ctx, sub.Credentials); err != nil {
			logging.Warn("Submitted network credentials did not connect", zap.Error(err))
		}
	}

	dispatcher := &ota.Dispatcher{
		Identity: caps.Identity(),
		Output:   out,
		Transport: &ota.HTTPTransport{
			Version: version.Version,
			Flasher: ota.FileFlasher{TargetPath: firmwareTarget},
			Restart: restartProcess,
		},
	}

	ctrl := session.NewController(session.ControllerConfig{
		Record: func() config.ConfigRecord {
			rec, found, err := store.Load()
			if err == nil && found {
				return rec
			}
			if err != nil {
				logging.Warn("Failed to load record, using baked defaults", zap.Error(err))
			}
			return config.ConfigRecord{
				EndpointURL: settings.Defaults.EndpointURL,
				AuthToken:   settings.Defaults.AuthToken,
			}
		},
		Dialer: &session.WSDialer{
			HandshakeTimeout:  10 * time.Second,
			HeartbeatInterval: settings.HeartbeatInterval,
			HeartbeatTimeout:  settings.HeartbeatTimeout,
			HeartbeatRetries:  settings.HeartbeatRetries,
		},
		Updates:                 dispatcher,
		Output:                  out,
		Portal:                  prt,
		MaxAuthFailures:         settings.MaxAuthFailures,
		RequireAuthForActuation: settings.RequireAuthForActuation,
		ReconnectInterval:       settings.ReconnectInterval,
	})
	dispatcher.Session = ctrl

	a := &agent{
		settings: settings,
		store:    store,
		linkMgr:  linkMgr,
		ctrl:     ctrl,
		output:   out,
	}
	a.admin = &admin.Channel{
		Store:   store,
		Portal:  prt,
		Restart: restartProcess,
	}
	if !settings.DiscoveryDisabled {
		a.mdns = func() (*discovery.Announcement, error) {
			return discovery.Announce(serial(), version.Version, settings.DiscoveryPort)
		}
	}
	return a, nil
}

// run is the control loop. All session state changes happen here, on one
// goroutine; the transport only feeds events in.
func (a *agent) run(ctx context.Context) error {
	if a.mdns != nil {
		ann, err := a.mdns()
		if err != nil {
			logging.Warn("Network announcement failed", zap.Error(err))
		} else {
			defer ann.Shutdown()
		}
	}

	a.startAdmin(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.ctrl.Teardown()
			logging.Info("Agent stopping")
			return nil

		case now := <-ticker.C:
			if !a.superviseLink(ctx) {
				continue
			}
			a.ctrl.Tick(ctx, now)

		case ev, ok := <-a.ctrl.Events():
			if !ok {
				ev = session.Event{Kind: session.EventDropped}
			}
			a.ctrl.HandleEvent(ctx, ev)
		}
	}
}

// credentialSources feeds the link manager's chain. The record carries no
// network name of its own, so the 802.1X branch borrows the default SSID;
// with no default network configured the branch reports unconfigured.
func credentialSources(settings config.Settings, store *config.RecordStore) link.Sources {
	return link.Sources{
		Enterprise: func() (link.EnterpriseCredentials, bool) {
			rec, found, err := store.Load()
			if err != nil || !found || !rec.HasEnterprise() || !settings.Defaults.HasWifi() {
				return link.EnterpriseCredentials{}, false
			}
			return link.EnterpriseCredentials{
				SSID:     settings.Defaults.WifiSSID,
				Identity: rec.EAPIdentity,
				Secret:   rec.EAPPassword,
			}, true
		},
		Defaults: func() (link.Credentials, bool) {
			if !settings.Defaults.HasWifi() {
				return link.Credentials{}, false
			}
			return link.Credentials{
				SSID:       settings.Defaults.WifiSSID,
				Passphrase: settings.Defaults.WifiPass,
			}, true
		},
	}
}

// superviseLink keeps the link up and reports whether it is usable this
// tick. A lost link tears the session down and deactivates the output
// before the chain runs, so a stale session never outlives its link and
// the next due tick redials on a fresh one.
func (a *agent) superviseLink(ctx context.Context) bool {
	if a.linkMgr.IsUp(ctx) {
		a.linkUp = true
		return true
	}

	if a.linkUp {
		a.linkUp = false
		logging.LogLinkEvent("lost")
		a.ctrl.Teardown()
		if err := a.output.Set(false); err != nil {
			logging.Error("Failed to deactivate output", zap.Error(err))
		}
	}

	if err := a.linkMgr.Ensure(ctx); err != nil {
		logging.LogLinkEvent("down", zap.Error(err))
		return false
	}
	a.linkUp = true
	return true
}

// startAdmin serves the administrative channel when one is configured.
func (a *agent) startAdmin(ctx context.Context) {
	device := a.settings.AdminDevice
	if device == "" {
		return
	}

	go func() {
		var rw adminStream
		if device == "stdin" {
			rw = adminStream{Reader: os.Stdin, Writer: os.Stdout}
		} else {
			f, err := os.OpenFile(device, os.O_RDWR, 0)
			if err != nil {
				logging.Warn("Failed to open admin device", zap.String("device", device), zap.Error(err))
				return
			}
			defer f.Close()
			rw = adminStream{Reader: f, Writer: f}
		}
		if err := a.admin.Serve(ctx, rw); err != nil {
			logging.Warn("Admin channel ended", zap.Error(err))
		}
	}()
}

// adminStream pairs the read and write halves of the admin channel.
type adminStream struct {
	io.Reader
	io.Writer
}

// linkPortal adapts the portal to the link manager's credential-returning
// contract. The manager runs the returned credentials through its own
// attempt machinery, so Commit must not fire here.
type linkPortal struct {
	portal *portal.Portal
}

func (lp linkPortal) Reconfigure(ctx context.Context) (link.Credentials, bool) {
	sub, ok := lp.portal.RunAndSave(ctx)
	return sub.Credentials, ok
}

// seedRecord writes the baked default record on first boot so a
// preprovisioned device comes up without a portal cycle.
func seedRecord(settings config.Settings, store *config.RecordStore) {
	_, found, err := store.Load()
	if err != nil || found {
		return
	}
	if !settings.Defaults.HasAppConfig() {
		return
	}
	rec := config.ConfigRecord{
		EndpointURL: settings.Defaults.EndpointURL,
		AuthToken:   settings.Defaults.AuthToken,
	}
	if err := store.Save(rec); err != nil {
		logging.Warn("Failed to seed record from defaults", zap.Error(err))
		return
	}
	logging.Info("Seeded configuration record from baked defaults")
}

// selectOutput picks the actuator backend. GPIO failures fall back to the
// in-memory output so the agent still runs on development hosts.
func selectOutput(settings config.Settings, caps platform.Capabilities) actuator.Output {
	line := caps.ActuatorLine()
	if settings.ActuatorLine > 0 {
		line = settings.ActuatorLine
	}
	gpio, err := actuator.NewGPIO(line)
	if err != nil {
		logging.Warn("Actuator line unavailable, using in-memory output",
			zap.Int("line", line),
			zap.Error(err),
		)
		return actuator.NewMemory()
	}
	return gpio
}

// serial identifies this device in network announcements.
func serial() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown"
	}
	return host
}

// restartProcess re-executes the agent binary in place. Called after a
// saved reconfiguration and after a successful firmware install.
func restartProcess() {
	logging.Info("Restarting agent")
	logging.Sync()

	exe, err := os.Executable()
	if err != nil {
		logging.Fatal("Cannot locate executable for restart", zap.Error(err))
	}
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		logging.Fatal("Restart failed", zap.Error(err))
	}
}
