// Package version exposes the agent's build identity. The values are
// stamped at build time via ldflags:
//
//	go build -ldflags="-X github.com/relaylink/relaylink/internal/version.Version=v1.2.3 \
//	                   -X github.com/relaylink/relaylink/internal/version.Commit=abc123"
//
// When unset they are recovered from Go build info (VCS metadata), falling
// back to a dated dev string. The version string is also what the agent
// reports to the update service so the server can decide whether a firmware
// image is actually newer.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

var (
	// Version is the semantic version of the agent.
	Version = ""
	// Commit is the short git commit hash.
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = fmt.Sprintf("dev-%s", time.Now().Format("20060102-150405"))
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var revision, modified, vcsTime string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			vcsTime = s.Value
		}
	}

	if Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		Commit = revision
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = fmt.Sprintf("dev-%s", t.Format("20060102"))
		}
	}
}

// Full returns the version string including the commit hash.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
