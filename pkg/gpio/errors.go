// SPDX-License-Identifier: BSD-3-Clause

//go:build linux
// +build linux

package gpio

import "errors"

var (
	// ErrNoControlLines indicates that the mandatory enable line for the
	// modem is not present under either sysfs layout; the hardware cannot
	// be driven at all.
	ErrNoControlLines = errors.New("gpio: modem enable line not available")
	// ErrAlreadyProbed indicates a second Probe call on an Effector that
	// has already discovered its layout.
	ErrAlreadyProbed = errors.New("gpio: effector already probed")
	// ErrNotProbed indicates a Write/sequence call before Probe succeeded.
	ErrNotProbed = errors.New("gpio: effector not probed")
)
