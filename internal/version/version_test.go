/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	got := String()
	if !strings.HasPrefix(got, "smartplaylist 1.2.3 (") {
		t.Fatalf("String()=%q", got)
	}
	if !strings.Contains(got, runtime.Version()) {
		t.Fatalf("String()=%q, want Go version", got)
	}
}
