// SPDX-License-Identifier: BSD-3-Clause

// Package mtcsupervisor watches PowerFSM transitions and drives the MTC
// handshake with the baseband once it has booted: querying its reported
// state, forwarding powered/unpowered changes exactly once per change,
// completing the pending online-transition callback, and running the
// graceful power-off request/poll pair described for the original
// n900modem.c coordination between gpio_power_state_machine and the
// MTC client.
package mtcsupervisor
