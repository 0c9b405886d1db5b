// Package endpoint parses command-service connection URLs.
//
// The accepted grammar is deliberately small: a ws:// or wss:// scheme,
// a host with optional port, and a path. Parsing is a pure function with
// no I/O; the controller re-parses the configured URL on every connection
// attempt so a freshly saved configuration takes effect immediately.
package endpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// Default ports applied when the URL carries no explicit port.
const (
	DefaultSecurePort   = 443
	DefaultInsecurePort = 80
)

// Endpoint is the structured form of a connection URL.
type Endpoint struct {
	// Secure selects TLS (wss://) over plaintext (ws://).
	Secure bool
	// Host is the server name or address. Never empty for a parsed endpoint.
	Host string
	// Port is in [1, 65535].
	Port int
	// Path always starts with "/".
	Path string
}

// ParseError describes why a connection URL was rejected.
type ParseError struct {
	Input  string
	Reason string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid endpoint URL %q: %s", e.Input, e.Reason)
}

// Parse converts a raw connection URL into an Endpoint.
//
// Rules:
//   - the URL must start with "ws://" or "wss://"
//   - the remainder is split at the first "/" into host:port and path;
//     the path defaults to "/"
//   - host and port are split at the last ":"; the port defaults to 443
//     (wss) or 80 (ws) and must be an integer in [1, 65535]
//   - an empty host is an error
//
// The same input always yields the same result.
func Parse(raw string) (Endpoint, error) {
	u := strings.TrimSpace(raw)

	var ep Endpoint
	switch {
	case strings.HasPrefix(u, "wss://"):
		ep.Secure = true
		u = u[len("wss://"):]
	case strings.HasPrefix(u, "ws://"):
		ep.Secure = false
		u = u[len("ws://"):]
	default:
		return Endpoint{}, &ParseError{Input: raw, Reason: "scheme must be ws:// or wss://"}
	}

	hostPort := u
	ep.Path = "/"
	if slash := strings.Index(u, "/"); slash >= 0 {
		hostPort = u[:slash]
		ep.Path = u[slash:]
	}
	if !strings.HasPrefix(ep.Path, "/") {
		ep.Path = "/" + ep.Path
	}

	ep.Host = hostPort
	ep.Port = DefaultInsecurePort
	if ep.Secure {
		ep.Port = DefaultSecurePort
	}
	if colon := strings.LastIndex(hostPort, ":"); colon >= 0 {
		ep.Host = hostPort[:colon]
		p, err := strconv.Atoi(hostPort[colon+1:])
		if err != nil {
			return Endpoint{}, &ParseError{Input: raw, Reason: "port is not a number"}
		}
		if p < 1 || p > 65535 {
			return Endpoint{}, &ParseError{Input: raw, Reason: "port out of range"}
		}
		ep.Port = p
	}

	if ep.Host == "" {
		return Endpoint{}, &ParseError{Input: raw, Reason: "empty host"}
	}

	return ep, nil
}

// String reconstructs the canonical URL form. The port is included only
// when it differs from the scheme default, so Parse(ep.String()) yields an
// endpoint equal to ep.
func (ep Endpoint) String() string {
	scheme := "ws"
	def := DefaultInsecurePort
	if ep.Secure {
		scheme = "wss"
		def = DefaultSecurePort
	}
	if ep.Port != def {
		return fmt.Sprintf("%s://%s:%d%s", scheme, ep.Host, ep.Port, ep.Path)
	}
	return fmt.Sprintf("%s://%s%s", scheme, ep.Host, ep.Path)
}
