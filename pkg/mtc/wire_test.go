// SPDX-License-Identifier: BSD-3-Clause

package mtc

import "testing"

func TestStateQueryRoundTrip(t *testing.T) {
	req := EncodeStateQueryReq()
	typ, err := Type(req)
	if err != nil || typ != StateQueryReq {
		t.Fatalf("unexpected type/err: %v %v", typ, err)
	}

	resp := []byte{byte(StateQueryResp), byte(StateRFInactive), byte(StateNormal)}
	current, target, err := DecodeStateQueryResp(resp)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if current != StateRFInactive || target != StateNormal {
		t.Fatalf("unexpected current/target: %v %v", current, target)
	}
}

func TestStateReqRoundTrip(t *testing.T) {
	req := EncodeStateReq(StateNormal)
	if MessageType(req[0]) != StateReq || ModemState(req[1]) != StateNormal {
		t.Fatalf("unexpected encoding: %v", req)
	}

	cause, err := DecodeStateResp([]byte{byte(StateResp), byte(CauseAlreadyActive)})
	if err != nil || cause != CauseAlreadyActive {
		t.Fatalf("unexpected cause/err: %v %v", cause, err)
	}
}

func TestDecodeStateInfoInd(t *testing.T) {
	state, subkind, err := DecodeStateInfoInd([]byte{byte(StateInfoInd), byte(StateNormal), byte(SubkindReady)})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if state != StateNormal || subkind != SubkindReady {
		t.Fatalf("unexpected state/subkind: %v %v", state, subkind)
	}
}

func TestDecodeShortMessages(t *testing.T) {
	if _, _, err := DecodeStateQueryResp([]byte{byte(StateQueryResp)}); err != ErrShortMessage {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
	if _, err := DecodeStateResp(nil); err != ErrShortMessage {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
	if _, _, err := DecodeStateInfoInd([]byte{byte(StateInfoInd), byte(StateNormal)}); err != ErrShortMessage {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
	if _, err := Type(nil); err != ErrShortMessage {
		t.Fatalf("expected ErrShortMessage, got %v", err)
	}
}

func TestModemStatePowered(t *testing.T) {
	notPowered := []ModemState{StateNone, StatePowerOff, StateCharging, StateSelftestFail}
	for _, s := range notPowered {
		if s.Powered() {
			t.Fatalf("%v: expected not powered", s)
		}
	}
	powered := []ModemState{StateRFInactive, StateNormal}
	for _, s := range powered {
		if !s.Powered() {
			t.Fatalf("%v: expected powered", s)
		}
	}
}

func TestPowerOffRespRoundTrip(t *testing.T) {
	ok, err := DecodePowerOffResp([]byte{byte(PowerOffResp), 1})
	if err != nil || !ok {
		t.Fatalf("unexpected ok/err: %v %v", ok, err)
	}
	ok, err = DecodePowerOffResp([]byte{byte(PowerOffResp), 0})
	if err != nil || ok {
		t.Fatalf("unexpected ok/err: %v %v", ok, err)
	}
}
