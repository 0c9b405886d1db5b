// Package portal implements the interactive reconfiguration form. It is the
// escalation target for exhausted link credentials and repeated
// authentication rejections: a bounded terminal form collecting the endpoint
// URL, auth token, and network credentials. On a non-interactive stdin the
// portal declines immediately so a headless agent never blocks on it.
package portal
