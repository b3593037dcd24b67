/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/guardlabs/timeguard/pkg/status"
)

// trackedCase is the registry's record of one currently-running, budgeted
// case. All fields except id, startTime, budget and cancel (immutable after
// registration) are read and written only while holding the registry mutex.
type trackedCase struct {
	id        CaseID
	startTime time.Time
	budget    time.Duration
	cancel    context.CancelCauseFunc

	warned     bool
	completed  bool
	timedOut   bool
	timeoutErr *TimeoutError
}

// overdueCase is a snapshot entry handed to the watchdog for action outside
// the lock.
type overdueCase struct {
	tc      *trackedCase
	elapsed time.Duration
}

// registry tracks every budgeted case currently executing, along with the
// liveness of the watchdog goroutine that scans it. One mutex guards both,
// which is what guarantees at most one live watchdog: the empty->non-empty
// transition in register and the watchdog's own exit decision are serialized
// through the same critical section.
type registry struct {
	mutex        sync.Mutex
	cases        map[CaseID]*trackedCase
	watchdogLive bool
}

func newRegistry() *registry {
	return &registry{
		cases: map[CaseID]*trackedCase{},
	}
}

// register inserts tc and, if the registry was empty with no live watchdog,
// invokes spawn while still holding the lock so that concurrent registrations
// can never start a second watchdog.
func (r *registry) register(tc *trackedCase, spawn func()) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.cases[tc.id]; ok {
		return errors.WithMessagef(ErrDuplicateIdentity, "identity %q", string(tc.id))
	}
	r.cases[tc.id] = tc

	if !r.watchdogLive {
		r.watchdogLive = true
		spawn()
	}
	return nil
}

// unregister removes tc's entry. Idempotent, and safe against identity reuse:
// if an aborted case's identity has already been re-registered by a new case,
// the new entry is left alone.
func (r *registry) unregister(tc *trackedCase) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if cur, ok := r.cases[tc.id]; ok && cur == tc {
		delete(r.cases, tc.id)
	}
}

// markCompleted records that tc's body has returned. It reports the outcome
// of the completion-vs-timeout race: a nil return means completion won and
// the body's own outcome stands; a non-nil return means the watchdog flagged
// the case overdue first and the returned timeout error is authoritative.
// The decision is made under the same lock as snapshotOverdue, so the race
// has a total order.
func (r *registry) markCompleted(tc *trackedCase) *TimeoutError {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if tc.timedOut {
		return tc.timeoutErr
	}
	tc.completed = true
	return nil
}

// snapshotOverdue collects, under the lock, every tracked case whose elapsed
// time exceeds its budget and that has not completed. In abort mode the
// entries are flagged timed-out and removed so they are never scanned again;
// in continue mode they are flagged warned and already-warned entries are
// skipped, so each case warns at most once. The actual delivery (cancelling
// a context, logging a warning) happens outside the lock, on the returned
// slice.
func (r *registry) snapshotOverdue(now time.Time, policy Policy) []overdueCase {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var overdue []overdueCase
	for id, tc := range r.cases {
		elapsed := now.Sub(tc.startTime)
		if tc.completed || elapsed <= tc.budget {
			continue
		}

		switch policy {
		case PolicyContinue:
			if tc.warned {
				continue
			}
			tc.warned = true
		default:
			tc.timedOut = true
			tc.timeoutErr = &TimeoutError{ID: tc.id, Budget: tc.budget, Elapsed: elapsed}
			delete(r.cases, id)
		}
		overdue = append(overdue, overdueCase{tc: tc, elapsed: elapsed})
	}
	return overdue
}

// retireIfEmpty lets the watchdog decide, atomically with any concurrent
// registration, whether it may exit. A true return means the registry was
// empty and the liveness flag has been cleared; the next registration will
// spawn a fresh watchdog.
func (r *registry) retireIfEmpty() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if len(r.cases) > 0 {
		return false
	}
	r.watchdogLive = false
	return true
}

func (r *registry) status(now time.Time) *status.Guard {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s := &status.Guard{
		WatchdogLive: r.watchdogLive,
	}
	for _, tc := range r.cases {
		s.Cases = append(s.Cases, &status.Case{
			ID:      string(tc.id),
			Budget:  tc.budget,
			Elapsed: now.Sub(tc.startTime),
			Warned:  tc.warned,
		})
	}
	sort.Slice(s.Cases, func(i, j int) bool {
		return s.Cases[i].ID < s.Cases[j].ID
	})
	return s
}
