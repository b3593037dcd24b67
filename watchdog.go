/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard

import (
	"time"

	"github.com/guardlabs/timeguard/pkg/logging"
)

// watchdog is the single monitoring loop. It is started by the registry's
// empty->non-empty transition (under the registry lock) and exits when the
// registry drains, so its lifetime tracks the presence of budgeted cases:
// no cases, no goroutine. No lock is held across the ticker wait.
func (g *Guard) watchdog() {
	g.logger.Log(logging.LevelDebug, "watchdog started", "pollInterval", g.pollInterval)

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		<-ticker.C

		overdue := g.registry.snapshotOverdue(time.Now(), g.policy)
		for _, od := range overdue {
			g.deliver(od)
		}

		if g.registry.retireIfEmpty() {
			g.logger.Log(logging.LevelDebug, "watchdog stopped, no tracked cases remain")
			return
		}
	}
}

// deliver performs cancellation delivery for one overdue case. In abort mode
// the case's context is cancelled with the timeout error as cause; the error
// surfaces to the host when the guard wrapper returns. The owning goroutine
// observes the cancellation at its next point of observing the context, so
// delivery is best-effort and may be deferred arbitrarily long by a body
// that never looks. In continue mode a single warning is emitted and the
// case keeps running.
func (g *Guard) deliver(od overdueCase) {
	if g.policy == PolicyContinue {
		g.logger.Log(logging.LevelWarn, "test case exceeded its time budget, letting it continue",
			"id", string(od.tc.id),
			"budget", od.tc.budget,
			"elapsed", od.elapsed,
		)
		return
	}

	g.logger.Log(logging.LevelWarn, "aborting overdue test case",
		"id", string(od.tc.id),
		"budget", od.tc.budget,
		"elapsed", od.elapsed,
	)
	od.tc.cancel(od.tc.timeoutErr)
}
