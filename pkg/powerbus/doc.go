// SPDX-License-Identifier: BSD-3-Clause

// Package powerbus publishes every power state assignment the state
// machine makes to a single registered observer. It does not hold the
// pending online/offline transition callback; mtcsupervisor.Supervisor
// owns that.
package powerbus
