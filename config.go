/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard

import (
	"time"

	"github.com/guardlabs/timeguard/pkg/logging"
)

// DefaultPollInterval is the watchdog polling interval used when the Config
// does not specify one. It should be an order of magnitude smaller than the
// smallest budget the host configures; timeout detection latency is bounded
// by roughly one interval.
const DefaultPollInterval = 200 * time.Millisecond

type Config struct {
	// DefaultBudget is applied to every case run through RunDefault and to
	// Run calls that pass a zero budget. Zero means no default: cases
	// without an explicit budget run completely untracked.
	DefaultBudget time.Duration

	// Policy determines whether an overdue case is aborted or merely
	// warned about. The zero value is PolicyAbort.
	Policy Policy

	// PollInterval is how often the watchdog scans for overdue cases.
	// Zero or negative selects DefaultPollInterval.
	PollInterval time.Duration

	// Logger receives diagnostic output (overdue warnings, abort notices).
	// Nil drops all output.
	Logger logging.Logger
}
