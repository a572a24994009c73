// SPDX-License-Identifier: BSD-3-Clause

// Package linkmonitor watches one network interface's carrier state and
// reports edge-triggered up/down transitions to a single sink. It exists
// because the modem's Phonet interface only appears, and only goes
// IFF_RUNNING, once the baseband has actually answered on the link; the
// power state machine treats that transition the same way the original
// firmware-vendor driver's phonet_status_cb did.
package linkmonitor
