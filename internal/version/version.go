// Package version exposes build metadata stamped via -ldflags.
package version

var (
	// Version is the release version.
	Version = "0.1.0"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"

	// GitCommit is the source commit hash.
	GitCommit = "unknown"
)
