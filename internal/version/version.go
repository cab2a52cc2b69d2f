// Package version reports the binary's version information.
package version

import (
	"runtime/debug"
	"strings"
)

// These variables are intended to be populated at build time via -ldflags,
// e.g. -X github.com/kestrelops/worksafe/internal/version.Version=v0.3.0
var (
	// Version holds the semantic version of the binary.
	Version = "0.0.0-dev"

	// Commit holds the VCS commit hash used to build the binary (optional).
	Commit = ""

	// Date holds the build timestamp (optional).
	Date = ""
)

// String returns the effective version string used across the application,
// falling back to the main module version from debug.ReadBuildInfo when
// nothing was injected. Any leading "v" prefix is stripped.
func String() string {
	v := strings.TrimSpace(Version)

	if v == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}

	if v == "" {
		v = "0.0.0-dev"
	}

	return strings.TrimPrefix(v, "v")
}
