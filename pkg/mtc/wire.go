// SPDX-License-Identifier: BSD-3-Clause

package mtc

import "fmt"

// MessageType tags the first byte of every MTC wire message.
type MessageType byte

const (
	StateQueryReq MessageType = iota + 1
	StateQueryResp
	StateReq
	StateResp
	StateInfoInd
	PowerOffReq
	PowerOffResp
	ShutdownSyncReq
	StartupSynqReq
	StartupSynqResp
)

// ModemState is the opaque modem-reported power/RF state (mtc_state in
// the original protocol).
type ModemState byte

const (
	StateNone ModemState = iota
	StatePowerOff
	StateCharging
	StateSelftestFail
	StateRFInactive
	StateNormal
)

// Powered reports whether this ModemState counts as "powered" under the
// classification rule: NONE, POWER_OFF, CHARGING, SELFTEST_FAIL are not
// powered; everything else (RF_INACTIVE, NORMAL) is.
func (s ModemState) Powered() bool {
	switch s {
	case StateNone, StatePowerOff, StateCharging, StateSelftestFail:
		return false
	default:
		return true
	}
}

// Cause is the STATE_RESP result code.
type Cause byte

const (
	CauseOK Cause = iota
	CauseAlreadyActive
	CauseFailed
)

// IndSubkind distinguishes the two STATE_INFO_IND flavors.
type IndSubkind byte

const (
	SubkindStart IndSubkind = iota
	SubkindReady
)

// ErrShortMessage is returned by the Decode functions when a message is
// too short to contain its required fields.
var ErrShortMessage = fmt.Errorf("mtc: message too short")

// EncodeStateQueryReq builds a STATE_QUERY_REQ.
func EncodeStateQueryReq() []byte { return []byte{byte(StateQueryReq)} }

// DecodeStateQueryResp parses a STATE_QUERY_RESP: [type, current, target].
func DecodeStateQueryResp(b []byte) (current, target ModemState, err error) {
	if len(b) < 3 {
		return 0, 0, ErrShortMessage
	}
	return ModemState(b[1]), ModemState(b[2]), nil
}

// EncodeStateReq builds a STATE_REQ: [type, desired, 0].
func EncodeStateReq(desired ModemState) []byte {
	return []byte{byte(StateReq), byte(desired), 0}
}

// DecodeStateResp parses a STATE_RESP: [type, cause, ...].
func DecodeStateResp(b []byte) (Cause, error) {
	if len(b) < 2 {
		return 0, ErrShortMessage
	}
	return Cause(b[1]), nil
}

// DecodeStateInfoInd parses a STATE_INFO_IND: [type, state, subkind].
func DecodeStateInfoInd(b []byte) (state ModemState, subkind IndSubkind, err error) {
	if len(b) < 3 {
		return 0, 0, ErrShortMessage
	}
	return ModemState(b[1]), IndSubkind(b[2]), nil
}

// EncodePowerOffReq builds a POWER_OFF_REQ.
func EncodePowerOffReq() []byte { return []byte{byte(PowerOffReq)} }

// DecodePowerOffResp parses a POWER_OFF_RESP: [type, ok].
func DecodePowerOffResp(b []byte) (ok bool, err error) {
	if len(b) < 2 {
		return false, ErrShortMessage
	}
	return b[1] != 0, nil
}

// EncodeShutdownSyncReq builds the fire-and-forget shutdown-sync poll message.
func EncodeShutdownSyncReq() []byte { return []byte{byte(ShutdownSyncReq)} }

// EncodeStartupSynqReq builds the once-per-probe startup synchronization request.
func EncodeStartupSynqReq() []byte { return []byte{byte(StartupSynqReq)} }

// DecodeStartupSynqResp parses a STARTUP_SYNQ_RESP: [type, ok].
func DecodeStartupSynqResp(b []byte) (ok bool, err error) {
	if len(b) < 2 {
		return false, ErrShortMessage
	}
	return b[1] != 0, nil
}

// Type returns the message type tag of a raw wire message, or an error
// if the message is empty.
func Type(b []byte) (MessageType, error) {
	if len(b) < 1 {
		return 0, ErrShortMessage
	}
	return MessageType(b[0]), nil
}
