package version

import (
	"fmt"
	"strings"
)

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "4.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Major returns the leading component of Version, e.g. "4" for "4.0.0".
func Major() string {
	major, _, _ := strings.Cut(Version, ".")

	return major
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("lilith-launcher %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
