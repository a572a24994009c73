// SPDX-License-Identifier: BSD-3-Clause

package modem

import "errors"

var (
	// ErrBusy is returned by Probe when another Controller in this
	// process is already active, matching the original driver's single
	// module-static instance.
	ErrBusy = errors.New("modem: instance already active")
	// ErrAlreadyProbed is returned by a second Probe call on the same
	// Controller.
	ErrAlreadyProbed = errors.New("modem: already probed")
	// ErrNotProbed is returned by Enable/Disable/Remove/SetOnline before
	// Probe has succeeded.
	ErrNotProbed = errors.New("modem: not probed")
	// ErrNoEffector is returned by Probe when no GPIOEffector was
	// configured; Probe also returns it, wrapped, when no MonitorFactory
	// was configured.
	ErrNoEffector = errors.New("modem: no GPIO effector configured")
	// ErrBadUserdata is returned when a caller's userdata token does not
	// match the one supplied to Probe, mirroring the identity check the
	// original void* userdata pointer performed.
	ErrBadUserdata = errors.New("modem: userdata does not match probed instance")
	// ErrInvalidState is returned by SetOnline when the modem is not in
	// PowerState On, or has reported MTC state SelftestFail.
	ErrInvalidState = errors.New("modem: invalid state for online transition")
	// ErrRemoved is returned by any call made after Remove.
	ErrRemoved = errors.New("modem: instance removed")
)
