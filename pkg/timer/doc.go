// SPDX-License-Identifier: BSD-3-Clause

// Package timer provides the single one-shot timeout the power state
// machine arms on entry to a timed state and cancels on exit. At most
// one timer is ever outstanding: Arm cancels any previously armed timer
// before arming the new one, and Cancel is safe to call more than once.
package timer
