// Package misc keeps build time information.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X cssw/misc.version=... -X cssw/misc.gitHash=..."
var (
	version = "dev"
	gitHash = ""
)

const appName = "cssw"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

// GetGitHash returns commit hash the program was built from. When not set at
// link time VCS information embedded by the toolchain is used.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
