// SPDX-License-Identifier: BSD-3-Clause

// Package fsm implements the modem power-lifecycle state machine: an
// explicit, single-threaded dispatch over the event alphabet and state
// table of the original firmware-vendor GPIO power driver
// (gpio_power_state_machine / gpio_power_set_state), generalized just
// enough to take its GPIO effector, timer, and observer as injected
// dependencies instead of process-global state.
//
// Fire is the only entry point and is documented to run from a single
// owning goroutine; the machine keeps no internal locking, matching the
// cooperative, non-reentrant event loop the original driver assumed.
package fsm
