/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging defines the diagnostic channel of the timeout guard. The
// guard never writes to a fixed destination; the host runner supplies a
// Logger and decides where warnings and abort notices end up.
package logging

import (
	"fmt"
)

// Logger is a minimal logging interface designed to be easily adaptable to
// whatever logging library the host test runner already uses.
type Logger interface {
	// Log is invoked with the log level, the log message, and key/value
	// pairs of any relevant details. The keys are always strings, while
	// the values are unspecified.
	Log(level LogLevel, text string, args ...interface{})
}

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Simple console logger writing messages directly to standard output.
type consoleLogger LogLevel

// Log writes the message to standard output if level is greater or equal
// than the level of this consoleLogger, rendering the key/value details
// after the message text.
func (l consoleLogger) Log(level LogLevel, text string, args ...interface{}) {
	if level < LogLevel(l) {
		return
	}

	fmt.Print(text)
	for i := 0; i < len(args); i++ {
		if i+1 < len(args) {
			fmt.Printf(" %s=%v", args[i], args[i+1])
			i++
		} else {
			fmt.Printf(" %s=%%MISSING%%", args[i])
		}
	}
	fmt.Printf("\n")
}

// The nil logger drops all messages.
type nilLogger struct{}

func (nl *nilLogger) Log(level LogLevel, text string, args ...interface{}) {
	// Do nothing.
}

var (
	// ConsoleDebugLogger implements Logger and writes all log messages to stdout.
	ConsoleDebugLogger Logger = consoleLogger(LevelDebug)

	// ConsoleInfoLogger implements Logger and writes all LevelInfo and above log messages to stdout.
	ConsoleInfoLogger Logger = consoleLogger(LevelInfo)

	// ConsoleWarnLogger implements Logger and writes all LevelWarn and above log messages to stdout.
	ConsoleWarnLogger Logger = consoleLogger(LevelWarn)

	// ConsoleErrorLogger implements Logger and writes all LevelError log messages to stdout.
	ConsoleErrorLogger Logger = consoleLogger(LevelError)

	// NilLogger drops all log messages.
	NilLogger Logger = &nilLogger{}
)
