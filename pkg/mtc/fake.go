// SPDX-License-Identifier: BSD-3-Clause

package mtc

import (
	"context"
	"strings"
	"sync"
)

// Fake is an in-memory Transport double for tests. Responses are
// programmed by setting the exported fields directly; calls are recorded
// in Calls for assertions.
type Fake struct {
	mu sync.Mutex

	StateQueryCurrent, StateQueryTarget ModemState
	StateQueryErr                       error
	StateRespCause                      Cause
	StateRespErr                        error
	PowerOffAccepted                    bool
	PowerOffErr                         error
	ShutdownSyncErr                     error
	StartupSynqOK                       bool
	StartupSynqErr                      error

	Calls []string

	sink IndicationSink
}

func NewFake() *Fake { return &Fake{} }

func (f *Fake) StateQuery(_ context.Context) (ModemState, ModemState, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, "StateQuery")
	f.mu.Unlock()
	return f.StateQueryCurrent, f.StateQueryTarget, f.StateQueryErr
}

func (f *Fake) StateReq(_ context.Context, desired ModemState) (Cause, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, "StateReq:"+string(rune('0'+desired)))
	f.mu.Unlock()
	return f.StateRespCause, f.StateRespErr
}

func (f *Fake) PowerOffReq(_ context.Context) (bool, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, "PowerOffReq")
	f.mu.Unlock()
	return f.PowerOffAccepted, f.PowerOffErr
}

func (f *Fake) ShutdownSyncReq() error {
	f.mu.Lock()
	f.Calls = append(f.Calls, "ShutdownSyncReq")
	f.mu.Unlock()
	return f.ShutdownSyncErr
}

func (f *Fake) StartupSynqReq(_ context.Context) (bool, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, "StartupSynqReq")
	f.mu.Unlock()
	return f.StartupSynqOK, f.StartupSynqErr
}

func (f *Fake) Subscribe(sink IndicationSink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sink = sink
	return nil
}

func (f *Fake) Close() error { return nil }

// Deliver synthesizes a STATE_INFO_IND delivery to the registered sink,
// for tests driving the supervisor from the transport side.
func (f *Fake) Deliver(state ModemState, subkind IndSubkind) {
	f.mu.Lock()
	sink := f.sink
	f.mu.Unlock()
	if sink != nil {
		sink(state, subkind)
	}
}

// HasCallPrefix reports whether any recorded call starts with prefix, for
// tests that need to wait on a StateReq before asserting on it.
func (f *Fake) HasCallPrefix(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// PowerOffReqCount returns how many times PowerOffReq has been called.
func (f *Fake) PowerOffReqCount() int { return f.callCount("PowerOffReq") }

// ShutdownSyncReqCount returns how many times ShutdownSyncReq has been called.
func (f *Fake) ShutdownSyncReqCount() int { return f.callCount("ShutdownSyncReq") }

func (f *Fake) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == name {
			n++
		}
	}
	return n
}

var _ Transport = (*Fake)(nil)
