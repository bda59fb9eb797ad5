// Copyright 2026 The Skyward Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the sky
// binary, injected at build time via -ldflags:
//
//	go build -ldflags "-X github.com/skyward-networks/skyward/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty reports whether the tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version, set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns Info plus the Go runtime version.
func Full() string {
	return fmt.Sprintf("%s %s %s/%s", Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
