/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status holds the introspection types returned by the guard. A
// snapshot is a plain value, safe to retain, marshal, or render after the
// cases it describes have finished.
package status

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Case describes one currently-tracked test case.
type Case struct {
	ID      string        `json:"id"`
	Budget  time.Duration `json:"budget_ns"`
	Elapsed time.Duration `json:"elapsed_ns"`
	Warned  bool          `json:"warned"`
}

// Guard is a point-in-time snapshot of the timeout guard: every tracked
// case plus whether the shared watchdog goroutine is currently live.
type Guard struct {
	WatchdogLive bool    `json:"watchdog_live"`
	Cases        []*Case `json:"cases"`
}

// JSON renders the snapshot as indented JSON.
func (g *Guard) JSON() (string, error) {
	raw, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Pretty returns a human-readable rendering of the snapshot.
func (g *Guard) Pretty() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "watchdog live: %v\n", g.WatchdogLive)
	fmt.Fprintf(&buf, "tracked cases: %d\n", len(g.Cases))
	for _, c := range g.Cases {
		over := ""
		if c.Elapsed > c.Budget {
			over = " OVERDUE"
		}
		fmt.Fprintf(&buf, "  %s: elapsed %v of %v%s", c.ID, c.Elapsed.Round(time.Millisecond), c.Budget, over)
		if c.Warned {
			buf.WriteString(" (warned)")
		}
		buf.WriteString("\n")
	}

	return buf.String()
}
