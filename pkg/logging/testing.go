/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import "fmt"

// TB is the subset of testing.TB this package needs. It is declared here so
// that importing the logging package does not pull the testing package into
// non-test binaries.
type TB interface {
	Logf(format string, args ...interface{})
}

type testLogger struct {
	tb TB
}

func (tl *testLogger) Log(level LogLevel, text string, args ...interface{}) {
	line := text
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	tl.tb.Logf("%s", line)
}

// TestLogger returns a Logger that forwards every message to tb.Logf, so
// guard diagnostics interleave with the host runner's own test output.
func TestLogger(tb TB) Logger {
	return &testLogger{tb: tb}
}
