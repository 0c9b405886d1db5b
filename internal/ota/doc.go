// Package ota handles remote-update commands received over the session.
//
// Every inbound session message is offered to the Dispatcher before any
// other interpretation. Two wire encodings are accepted, tried in order:
//
//	OTA:<url>
//	{"type":"ota","url":"...","md5":"...","chip":"..."}
//
// The simple form takes everything after the prefix, trimmed, as the image
// URL; an empty URL is not an update request. The structured form must
// carry type "ota"; malformed JSON is not an update request and falls
// through to normal message handling. A non-empty "chip" tag that does not
// match the running board's identity is acknowledged and ignored without
// side effects.
//
// On a real match the dispatcher tears the session down, turns the actuator
// off, and hands the URL (and optional MD5) to the update transport. A
// successful update ends in a process restart; anything else is logged and
// the control loop resumes, reconnecting on the next scheduler tick. The
// same update request is never retried automatically.
package ota
