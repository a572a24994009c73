// SPDX-License-Identifier: BSD-3-Clause

// Package powerstate declares the small enum types shared between the
// power state machine, the power bus, and anything observing modem power
// transitions. Keeping them in their own package lets fsm and powerbus
// depend on the types without depending on each other.
package powerstate
