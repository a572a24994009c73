// SPDX-License-Identifier: BSD-3-Clause

// Package mtc implements the wire encoding and transport for the Modem
// Telephony Control request/response/indication protocol: the byte-
// oriented handshake the original driver used (mtc_state_req,
// mtc_power_off, mtc_state_ind_cb, and friends in n900modem.c) to
// coordinate power and RF state with the baseband once it has booted.
//
// Messages are tagged by their first byte, matching the original wire
// format; there is no protobuf schema here because the original
// protocol predates and has no natural mapping onto one.
package mtc
