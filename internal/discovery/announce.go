// Package discovery announces the agent on the local network over mDNS so
// operators and provisioning tools can locate the device without knowing
// its address.
package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
	"github.com/relaylink/relaylink/internal/logging"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type the agent advertises.
	ServiceType = "_relaylink._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultPort is the advertised service port when none is configured.
	DefaultPort = 8921
)

// Announcement is an active mDNS registration.
type Announcement struct {
	server *zeroconf.Server
}

// Announce registers the agent as a _relaylink._tcp service. The instance
// name embeds the serial so multiple devices on one segment stay distinct.
// TXT records carry the firmware version and serial.
func Announce(serial, version string, port int) (*Announcement, error) {
	if port <= 0 {
		port = DefaultPort
	}
	instance := fmt.Sprintf("relaylink-%s", serial)
	txt := []string{
		"version=" + version,
		"serial=" + serial,
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Announced on local network",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return &Announcement{server: server}, nil
}

// Shutdown withdraws the registration. Safe on a nil announcement so
// callers can defer it unconditionally.
func (a *Announcement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
}
