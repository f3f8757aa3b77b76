// Package misc keeps program identity in a single place.
package misc

import (
	"runtime/debug"
)

// Set by the linker: -ldflags "-X flipbook/misc.version=... -X flipbook/misc.gitHash=...".
var (
	version = "dev"
	gitHash = ""
)

// GetAppName returns program name as it should appear in logs and file names.
func GetAppName() string {
	return "flipbook"
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns source revision program was built from, if known.
func GetGitHash() string {
	if len(gitHash) > 0 {
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
