// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"testing"
	"time"

	"github.com/n900/modemd/pkg/powerbus"
	"github.com/n900/modemd/pkg/powerstate"
)

func newTestFSM() (*FSM, *fakeEffector, *[]powerstate.State) {
	eff := &fakeEffector{}
	bus := powerbus.New()
	var trace []powerstate.State
	bus.Subscribe(powerbus.ObserverFunc(func(s powerstate.State) { trace = append(trace, s) }))

	f := New(eff, bus, WithTimeouts(20*time.Millisecond, 20*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond))
	return f, eff, &trace
}

// Cold boot with the link already reported down while the machine is
// still in None goes directly to Off, matching the original driver's
// state==None special case (see DESIGN.md for the reasoning).
func TestScenarioColdBootLinkDown(t *testing.T) {
	f, _, trace := newTestFSM()

	f.Fire(LinkDownEvent)
	if f.State() != powerstate.Off {
		t.Fatalf("expected Off, got %v", f.State())
	}

	f.Fire(PowerOnEvent)
	if f.State() != powerstate.OnStarted {
		t.Fatalf("expected OnStarted, got %v", f.State())
	}

	f.Fire(LinkUpEvent)
	if f.State() != powerstate.On {
		t.Fatalf("expected On, got %v", f.State())
	}

	want := []powerstate.State{powerstate.Off, powerstate.OnStarted, powerstate.On}
	assertTrace(t, *trace, want)
}

// Power-on requested before any link event ever arrives exhausts the
// power-on retry count and lands in OnFailed after 11 OnStarted entries.
func TestScenarioPowerOnRetriesExhausted(t *testing.T) {
	f, _, trace := newTestFSM()

	f.Fire(PowerOnEvent) // target=Up, current still None: no-op
	if f.State() != powerstate.None {
		t.Fatalf("expected None before first link event, got %v", f.State())
	}

	f.Fire(LinkDownEvent) // first OnStarted entry
	if f.State() != powerstate.OnStarted {
		t.Fatalf("expected OnStarted, got %v", f.State())
	}

	for i := 0; i < 11; i++ {
		f.Fire(PowerOnTimeoutEvent)
	}

	if f.State() != powerstate.OnFailed {
		t.Fatalf("expected OnFailed after exhausting retries, got %v", f.State())
	}

	entries := 0
	for _, s := range *trace {
		if s == powerstate.OnStarted {
			entries++
		}
	}
	if entries != 11 {
		t.Fatalf("expected 11 OnStarted entries, got %d", entries)
	}
}

// Link-down mid-operation defers the GPIO reset to the second OnReset
// entry (the first RebootTimeout), matching the retries++ > 0 guard.
func TestScenarioResetDefersGPIOUntilSecondEntry(t *testing.T) {
	f, eff, _ := newTestFSM()

	f.Fire(PowerOnEvent)
	f.Fire(LinkDownEvent)
	f.Fire(LinkUpEvent)
	if f.State() != powerstate.On {
		t.Fatalf("expected On, got %v", f.State())
	}
	eff.calls = nil

	f.Fire(LinkDownEvent) // target still Up -> OnReset, retries=1, no reset yet
	if f.State() != powerstate.OnReset {
		t.Fatalf("expected OnReset, got %v", f.State())
	}
	if containsCall(eff.calls, "StartReset") {
		t.Fatal("StartReset must not be called on first OnReset entry")
	}

	f.Fire(RebootTimeoutEvent) // second entry: retries=2, reset fires
	if f.State() != powerstate.OnReset {
		t.Fatalf("expected OnReset (self re-entry), got %v", f.State())
	}
	if !containsCall(eff.calls, "StartReset") {
		t.Fatal("expected StartReset on second OnReset entry")
	}

	f.Fire(LinkUpEvent)
	if f.State() != powerstate.On {
		t.Fatalf("expected On, got %v", f.State())
	}
}

// PowerOff requested while OnStarted is deferred until the power-on
// timer fires.
func TestScenarioOffDuringStartupDeferred(t *testing.T) {
	f, _, _ := newTestFSM()

	f.Fire(PowerOnEvent)
	f.Fire(LinkDownEvent)
	if f.State() != powerstate.OnStarted {
		t.Fatalf("expected OnStarted, got %v", f.State())
	}

	f.Fire(PowerOffEvent)
	if f.State() != powerstate.OnStarted {
		t.Fatalf("expected to remain in OnStarted, got %v", f.State())
	}
	if f.Target() != powerstate.TargetDown {
		t.Fatalf("expected target Down, got %v", f.Target())
	}

	f.Fire(PowerOnTimeoutEvent)
	if f.State() != powerstate.OffStarted {
		t.Fatalf("expected OffStarted, got %v", f.State())
	}
}

// No shutdown confirmation before the power-off timer forces Off.
func TestScenarioPowerOffTimeout(t *testing.T) {
	f, _, _ := newTestFSM()

	f.Fire(PowerOnEvent)
	f.Fire(LinkDownEvent)
	f.Fire(LinkUpEvent)
	f.Fire(PowerOffEvent)
	if f.State() != powerstate.OffStarted {
		t.Fatalf("expected OffStarted, got %v", f.State())
	}

	f.Fire(PowerOffTimeoutEvent)
	if f.State() != powerstate.Off {
		t.Fatalf("expected Off, got %v", f.State())
	}
}

// Universal property: PowerOffImmediately reaches Off in one transition
// from any state.
func TestPropertyPowerOffImmediatelyFromAnyState(t *testing.T) {
	states := []func(f *FSM){
		func(f *FSM) {},
		func(f *FSM) { f.Fire(PowerOnEvent); f.Fire(LinkDownEvent) },
		func(f *FSM) { f.Fire(PowerOnEvent); f.Fire(LinkDownEvent); f.Fire(LinkUpEvent) },
	}

	for i, setup := range states {
		f, _, _ := newTestFSM()
		setup(f)
		f.Fire(PowerOffImmediatelyEvent)
		if f.State() != powerstate.Off {
			t.Fatalf("case %d: expected Off, got %v", i, f.State())
		}
	}
}

// Universal property: self re-entry into OnStarted re-publishes the
// state and runs StartPowerOn again.
func TestPropertySelfTransitionOnStartedRepublishes(t *testing.T) {
	f, eff, trace := newTestFSM()

	f.Fire(PowerOnEvent)
	f.Fire(LinkDownEvent) // -> OnStarted, 1st entry
	eff.calls = nil

	f.Fire(PowerOnTimeoutEvent) // self re-entry into OnStarted
	if f.State() != powerstate.OnStarted {
		t.Fatalf("expected OnStarted, got %v", f.State())
	}
	if !containsCall(eff.calls, "StartPowerOn") {
		t.Fatal("expected StartPowerOn to run again on self re-entry")
	}

	count := 0
	for _, s := range *trace {
		if s == powerstate.OnStarted {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 publishes of OnStarted, got %d", count)
	}
}

func assertTrace(t *testing.T, got, want []powerstate.State) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("trace length mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("trace mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}

func containsCall(calls []string, name string) bool {
	for _, c := range calls {
		if c == name {
			return true
		}
	}
	return false
}
