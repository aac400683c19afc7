// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// buildSettings fills unset ldflags values from the VCS stamp the go
// command embeds in module builds.
func buildSettings(info *debug.BuildInfo) (commit, dirty, built string) {
	commit, dirty, built = GitCommit, GitDirty, BuildTime
	if info == nil {
		return commit, dirty, built
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == "unknown" && setting.Value != "" {
				commit = setting.Value
				if len(commit) > 12 {
					commit = commit[:12]
				}
			}
		case "vcs.modified":
			if setting.Value == "true" {
				dirty = "true"
			}
		case "vcs.time":
			if built == "unknown" && setting.Value != "" {
				built = setting.Value
			}
		}
	}
	return commit, dirty, built
}

func readBuildInfo() *debug.BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	return info
}

func format(commit, dirty, built string) string {
	suffix := ""
	if dirty == "true" {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return format(buildSettings(readBuildInfo()))
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Commit returns the git commit SHA.
func Commit() string {
	commit, _, _ := buildSettings(readBuildInfo())
	return commit
}
