// Package logging provides structured logging for the relaylink agent.
//
// This package wraps zap with convenience functions for the logging patterns
// used throughout the agent: session lifecycle events, link (WiFi) events,
// and update progress.
//
// # Log Levels
//
//   - Debug: per-message traffic, scheduler ticks, radio command output
//   - Info: normal operations (session state changes, link up, update start)
//   - Warn: non-fatal issues (auth rejections, reconnects, portal timeouts)
//   - Error: failures the agent recovers from but an operator should see
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("Session state changed",
//	    zap.String("from", "open"),
//	    zap.String("to", "authenticated"),
//	)
//
// # Configuration
//
// Initialize logging at agent startup:
//
//	if err := logging.Initialize("info"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is supplied the RELAYLINK_LOG_LEVEL environment variable is
// consulted; if that is also unset the logger is a silent nop, which keeps
// the admin channel (often sharing the same serial console) clean.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
