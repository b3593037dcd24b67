/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package timeguard bounds the wall-clock duration of individually executing
// test cases inside a host test runner. A case body always runs in the
// goroutine that invoked the guard, never in a spawned one, so any ambient
// runner state bound to that goroutine (current-test accessors, fixtures,
// mocks) stays observable to the body. A single shared watchdog goroutine
// monitors every tracked case, regardless of how many cases run, so the
// monitoring overhead is constant rather than per-case.
//
// Cancellation is delivered through the context handed to the case body and
// is therefore best-effort: a body that never reaches a point where it
// observes the context keeps running, and the guard only reports the timeout
// once the body eventually returns. The guard makes no attempt to forcefully
// terminate a goroutine.
package timeguard

import "context"

// CaseID identifies a running test case. It is supplied by the host runner
// and must be unique among concurrently tracked cases; it is otherwise
// opaque to this package.
type CaseID string

// Policy selects what the watchdog does with a case that has exceeded its
// time budget.
type Policy int

const (
	// PolicyAbort cancels the context of an overdue case and makes the
	// guard report a *TimeoutError for it. This is the default.
	PolicyAbort Policy = iota

	// PolicyContinue lets an overdue case keep running and only emits a
	// single warning through the configured logger.
	PolicyContinue
)

// Body is the unit of work executed under the guard. The context passed to
// it derives from the caller's context and is cancelled, with a
// *TimeoutError as the cause, when the case is aborted for exceeding its
// budget. The body runs in the calling goroutine of Guard.Run.
type Body func(ctx context.Context) (interface{}, error)
