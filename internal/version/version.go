/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version reports the build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is set at build time via ldflags:
//
//	-X github.com/friendsincode/smartplaylist/internal/version.Version=X.Y.Z
var Version = "0.1.0-dev"

// String describes the build: version, VCS revision when known, Go version.
func String() string {
	rev := revision()
	if rev == "" {
		return fmt.Sprintf("smartplaylist %s (%s)", Version, runtime.Version())
	}
	return fmt.Sprintf("smartplaylist %s (%s, %s)", Version, rev, runtime.Version())
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}
