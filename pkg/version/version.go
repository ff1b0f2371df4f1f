// Package version exposes build identification for the chronotable binary.
package version

// Build identification, overridden at build time with
// -ldflags "-X .../pkg/version.Version=v1.2.3".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
