// SPDX-License-Identifier: BSD-3-Clause

package mtcsupervisor

import "errors"

var (
	// ErrNotStarted is returned by AwaitOnline when called before Start.
	ErrNotStarted = errors.New("mtcsupervisor: not started")
	// ErrAlreadyStarted is returned by Start when called a second time.
	ErrAlreadyStarted = errors.New("mtcsupervisor: already started")
	// ErrOnlineTransitionFailed completes a pending online callback when
	// the modem reports a state other than NORMAL at STATE_INFO_IND(READY).
	ErrOnlineTransitionFailed = errors.New("mtcsupervisor: modem did not reach normal state")
)
