// Package admin implements the administrative line channel. Commands arrive
// one per line on a byte stream (a serial device file or stdin) and each
// produces exactly one response line, so the channel works from a dumb
// terminal or a shell pipe.
package admin
