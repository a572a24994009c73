// SPDX-License-Identifier: BSD-3-Clause

package fsm

import "errors"

var (
	// ErrNotProbed indicates Fire was called before the effector finished
	// probing the hardware.
	ErrNotProbed = errors.New("fsm: effector not probed")
)
