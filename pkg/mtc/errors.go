// SPDX-License-Identifier: BSD-3-Clause

package mtc

import "errors"

var (
	// ErrTransportTimeout indicates an MTC request exceeded MTC_TIMEOUT
	// without a response. Per the error handling design, these are
	// logged and swallowed by callers except for the one POWER_OFF_REQ
	// retry path.
	ErrTransportTimeout = errors.New("mtc: transport timeout")
	// ErrNotConnected indicates a request was attempted before Dial.
	ErrNotConnected = errors.New("mtc: transport not connected")
)
