/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"fmt"
	"sync"
)

type decoratedLogger struct {
	logger Logger
	prefix string
	args   []interface{}
}

func (dl *decoratedLogger) Log(level LogLevel, text string, args ...interface{}) {
	passedArgs := append(dl.args, args...)
	dl.logger.Log(level, fmt.Sprintf("%s%s", dl.prefix, text), passedArgs...)
}

// Decorate returns a Logger that prepends prefix to every message and binds
// the given key/value args to every call. Typical use in a host runner is
// binding a worker or suite identifier once instead of on every line.
func Decorate(logger Logger, prefix string, args ...interface{}) Logger {
	return &decoratedLogger{
		prefix: prefix,
		logger: logger,
		args:   args,
	}
}

type synchronizedLogger struct {
	logger Logger
	mutex  sync.Mutex
}

func (sl *synchronizedLogger) Log(level LogLevel, text string, args ...interface{}) {
	sl.mutex.Lock()
	sl.logger.Log(level, text, args...)
	sl.mutex.Unlock()
}

// Synchronize serializes all calls to the underlying Logger. The guard's
// watchdog logs from its own goroutine concurrently with runner goroutines,
// so a sink that is not itself safe for concurrent use should be wrapped.
func Synchronize(logger Logger) Logger {
	return &synchronizedLogger{
		logger: logger,
	}
}
