// SPDX-License-Identifier: BSD-3-Clause

// Package modem wires GPIOEffector, LinkMonitor, PowerFSM, the MTC
// transport, MTCSupervisor, and PowerBus into a single Controller that
// implements the public probe/enable/disable/remove/set_online surface
// the surrounding modem driver consumes. It owns the single-threaded
// event loop every other package assumes as its concurrency contract.
package modem
