package version

import (
	"fmt"
	"runtime"
)

//nolint:gochecknoglobals // Overridden via ldflags at build time.
var (
	// Version of the magisk-builder tool.
	Version = "0.1.0"
	// Commit is the short git SHA the tool was built from.
	Commit = "none"
	// BuildTime is the UTC timestamp of the tool build.
	BuildTime = "unknown"
)

// Short returns the tool version alone.
func Short() string {
	return Version
}

// Full returns the tool version with commit, build time, Go version and platform.
func Full() string {
	return fmt.Sprintf("magisk-builder %s (commit %s, built %s, %s %s/%s)",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
