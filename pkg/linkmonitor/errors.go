// SPDX-License-Identifier: BSD-3-Clause

package linkmonitor

import "errors"

var (
	// ErrAlreadyStarted indicates a second Start call on a running Monitor.
	ErrAlreadyStarted = errors.New("linkmonitor: already started")
	// ErrNotStarted indicates Stop was called on a Monitor that was never started.
	ErrNotStarted = errors.New("linkmonitor: not started")
)
