/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeguard

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ErrDuplicateIdentity is returned (wrapped, with the offending identity)
// when a case is registered under an identity that is already tracked. This
// indicates a host integration bug, not a runtime condition: identities must
// be unique among concurrently executing cases.
var ErrDuplicateIdentity = errors.New("case identity already tracked")

// TimeoutError reports that a case exceeded its time budget. In abort mode
// it is returned by Guard.Run and is also the cancellation cause of the
// context passed to the case body, so ctx-aware bodies can distinguish a
// guard abort from an unrelated cancellation via context.Cause.
type TimeoutError struct {
	ID      CaseID
	Budget  time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("test case %q exceeded its time budget of %v (ran for %v)", string(e.ID), e.Budget, e.Elapsed)
}
