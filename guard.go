/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard

import (
	"context"
	"time"

	"github.com/guardlabs/timeguard/pkg/logging"
	"github.com/guardlabs/timeguard/pkg/status"
)

// Guard is the per-process timeout facility a host test runner embeds. It is
// safe for concurrent use: multiple runner goroutines may each Run their own
// case while one shared watchdog goroutine monitors all of them.
type Guard struct {
	defaultBudget time.Duration
	policy        Policy
	pollInterval  time.Duration
	logger        logging.Logger

	registry *registry
}

// New creates a Guard from config, normalizing zero values. A nil config is
// treated as empty: no default budget, abort policy, DefaultPollInterval,
// no logging.
func New(config *Config) *Guard {
	if config == nil {
		config = &Config{}
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NilLogger
	}

	return &Guard{
		defaultBudget: config.DefaultBudget,
		policy:        config.Policy,
		pollInterval:  pollInterval,
		logger:        logger,
		registry:      newRegistry(),
	}
}

// Run executes body in the calling goroutine, bounded by budget. A zero or
// negative budget falls back to the configured default; if neither is set,
// body runs completely untracked and its outcome is returned as-is, with no
// registry interaction at all.
//
// With an effective budget, the case is registered under id for the duration
// of the call and unregistered on every exit path. The body receives a
// context derived from ctx that is cancelled, with a *TimeoutError cause,
// when the case is aborted. If the body completes before the watchdog flags
// it overdue, its own outcome is returned untouched (a stale cancellation is
// discarded); if the watchdog flagged it first under abort policy, Run
// returns the *TimeoutError. Under continue policy Run never reports a
// timeout; at most one warning is logged and the body's own outcome is
// returned once it finishes.
//
// id must be unique among concurrently running cases; a duplicate fails the
// call with ErrDuplicateIdentity before the body is run.
func (g *Guard) Run(ctx context.Context, id CaseID, budget time.Duration, body Body) (interface{}, error) {
	if budget <= 0 {
		budget = g.defaultBudget
	}
	if budget <= 0 {
		return body(ctx)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tc := &trackedCase{
		id:        id,
		startTime: time.Now(),
		budget:    budget,
		cancel:    cancel,
	}
	if err := g.registry.register(tc, func() { go g.watchdog() }); err != nil {
		return nil, err
	}
	defer g.registry.unregister(tc)

	result, err := body(runCtx)

	if terr := g.registry.markCompleted(tc); terr != nil {
		// The watchdog declared the timeout before the body returned its
		// own outcome, so the timeout verdict stands. The late outcome is
		// not silently lost.
		g.logger.Log(logging.LevelDebug, "discarding outcome of timed-out case",
			"id", string(id),
			"err", err,
		)
		return nil, terr
	}
	return result, err
}

// RunDefault is Run with the configured default budget. If no default is
// configured, body runs untracked.
func (g *Guard) RunDefault(ctx context.Context, id CaseID, body Body) (interface{}, error) {
	return g.Run(ctx, id, g.defaultBudget, body)
}

// Status returns a point-in-time snapshot of the tracked cases and watchdog
// liveness, for operator inspection. It takes the registry lock briefly and
// never blocks on case execution.
func (g *Guard) Status() *status.Guard {
	return g.registry.status(time.Now())
}
