// SPDX-License-Identifier: BSD-3-Clause

package modem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/n900/modemd/pkg/fsm"
	"github.com/n900/modemd/pkg/linkmonitor"
	"github.com/n900/modemd/pkg/mtc"
	"github.com/n900/modemd/pkg/mtcsupervisor"
	"github.com/n900/modemd/pkg/powerbus"
	"github.com/n900/modemd/pkg/powerstate"
)

type fakeEffector struct{ calls []string }

func (e *fakeEffector) Probe() error       { return nil }
func (e *fakeEffector) StartPowerOn()      { e.calls = append(e.calls, "StartPowerOn") }
func (e *fakeEffector) FinishPowerOn()     { e.calls = append(e.calls, "FinishPowerOn") }
func (e *fakeEffector) StartReset()        { e.calls = append(e.calls, "StartReset") }
func (e *fakeEffector) FinishReset()       { e.calls = append(e.calls, "FinishReset") }
func (e *fakeEffector) FinishPowerOff()    { e.calls = append(e.calls, "FinishPowerOff") }
func (e *fakeEffector) ClearResetRequest() { e.calls = append(e.calls, "ClearResetRequest") }

var _ GPIOEffector = (*fakeEffector)(nil)

// recordingObserver collects every power-state assignment the bus fans
// out to it, the way an external driver would wire up Probe's observer.
type recordingObserver struct {
	mu     sync.Mutex
	states []powerstate.State
}

func (o *recordingObserver) OnPowerState(s powerstate.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

func (o *recordingObserver) snapshot() []powerstate.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]powerstate.State(nil), o.states...)
}

var _ powerbus.Observer = (*recordingObserver)(nil)

func newTestController(t *testing.T, link *linkmonitor.Fake, transport *mtc.Fake) *Controller {
	t.Helper()
	return New(
		WithEffector(&fakeEffector{}),
		WithMonitorFactory(func(string) linkmonitor.Monitor { return link }),
		WithTransport(transport),
		WithFSMOptions(fsm.WithTimeouts(20*time.Millisecond, 20*time.Millisecond, 20*time.Millisecond, 5*time.Millisecond)),
		WithSupervisorOptions(mtcsupervisor.WithShutdownSyncPoll(5*time.Millisecond)),
	)
}

func waitForController(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// A second Probe anywhere in the process fails with ErrBusy until the
// first Controller is Removed.
func TestProbeEnforcesSingleton(t *testing.T) {
	ctx := context.Background()
	link1, link2 := linkmonitor.NewFake(), linkmonitor.NewFake()
	c1 := newTestController(t, link1, mtc.NewFake())
	c2 := newTestController(t, link2, mtc.NewFake())

	userdata := new(int)
	if err := c1.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe c1: %v", err)
	}

	if err := c2.Probe(ctx, nil, "phonet0", nil, userdata); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	if err := c1.Remove(ctx, userdata); err != nil {
		t.Fatalf("Remove c1: %v", err)
	}

	if err := c2.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe c2 after c1 removed: %v", err)
	}
	if err := c2.Remove(ctx, userdata); err != nil {
		t.Fatalf("Remove c2: %v", err)
	}
}

func TestEnableUserdataMismatchRejected(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	c := newTestController(t, link, mtc.NewFake())
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	if err := c.Enable(ctx, new(int)); err != ErrBadUserdata {
		t.Fatalf("expected ErrBadUserdata, got %v", err)
	}
}

// Enable followed by the link edges the baseband would itself report
// drives PowerFSM all the way to On, and the registered observer sees
// every intermediate assignment.
func TestEnableLinkUpReachesOn(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	c := newTestController(t, link, mtc.NewFake())
	observer := &recordingObserver{}
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", observer, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	if err := c.Enable(ctx, userdata); err != nil {
		t.Fatalf("Enable: %v", err)
	}

	link.Fire(linkmonitor.EdgeDown)
	waitForController(t, func() bool { return c.fsm.State() == powerstate.OnStarted })

	link.Fire(linkmonitor.EdgeUp)
	waitForController(t, func() bool { return c.fsm.State() == powerstate.On })

	want := []powerstate.State{powerstate.OnStarted, powerstate.On}
	got := observer.snapshot()
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("observer trace = %v, want %v", got, want)
	}
}

// Status reads back the FSM's current state and target without racing
// the event-loop goroutine that owns them, the same way Enable/Disable
// do - it's routed through reqCh rather than reading c.fsm directly.
func TestStatusReportsCurrentState(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	c := newTestController(t, link, mtc.NewFake())
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	st, err := c.Status(ctx, userdata)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != powerstate.None || st.Target != powerstate.TargetNone {
		t.Fatalf("unexpected initial status: %+v", st)
	}

	if err := c.Enable(ctx, userdata); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	link.Fire(linkmonitor.EdgeDown)
	waitForController(t, func() bool {
		s, err := c.Status(ctx, userdata)
		return err == nil && s.State == powerstate.OnStarted
	})

	st, err = c.Status(ctx, userdata)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Target != powerstate.TargetUp {
		t.Fatalf("expected target Up, got %v", st.Target)
	}

	if _, err := c.Status(ctx, new(int)); err != ErrBadUserdata {
		t.Fatalf("expected ErrBadUserdata, got %v", err)
	}
}

func TestSetOnlineRejectedOutsideOn(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	c := newTestController(t, link, mtc.NewFake())
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	err := c.SetOnline(ctx, true, userdata, func(bool, error) {})
	if err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

// CauseOK defers completion of the pending online callback to the next
// STATE_INFO_IND(READY) instead of completing synchronously.
func TestSetOnlineCompletesOnReadyIndication(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	transport := mtc.NewFake()
	c := newTestController(t, link, transport)
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	if err := c.Enable(ctx, userdata); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	link.Fire(linkmonitor.EdgeDown)
	link.Fire(linkmonitor.EdgeUp)
	waitForController(t, func() bool { return c.fsm.State() == powerstate.On })

	var got bool
	var gotErr error
	done := make(chan struct{})
	if err := c.SetOnline(ctx, true, userdata, func(online bool, err error) {
		got, gotErr = online, err
		close(done)
	}); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}

	waitForController(t, func() bool { return transport.HasCallPrefix("StateReq:") })
	transport.Deliver(mtc.StateNormal, mtc.SubkindReady)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("online callback never fired")
	}
	if !got || gotErr != nil {
		t.Fatalf("expected successful online completion, got %v %v", got, gotErr)
	}
}

// CauseAlreadyActive completes immediately with success, without waiting
// for an indication.
func TestSetOnlineAlreadyActiveCompletesImmediately(t *testing.T) {
	ctx := context.Background()
	link := linkmonitor.NewFake()
	transport := mtc.NewFake()
	transport.StateRespCause = mtc.CauseAlreadyActive
	c := newTestController(t, link, transport)
	userdata := new(int)

	if err := c.Probe(ctx, nil, "phonet0", nil, userdata); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	defer func() { _ = c.Remove(ctx, userdata) }()

	if err := c.Enable(ctx, userdata); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	link.Fire(linkmonitor.EdgeDown)
	link.Fire(linkmonitor.EdgeUp)
	waitForController(t, func() bool { return c.fsm.State() == powerstate.On })

	var got bool
	var gotErr error
	done := make(chan struct{})
	if err := c.SetOnline(ctx, true, userdata, func(online bool, err error) {
		got, gotErr = online, err
		close(done)
	}); err != nil {
		t.Fatalf("SetOnline: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("online callback never fired")
	}
	if !got || gotErr != nil {
		t.Fatalf("expected immediate successful completion, got %v %v", got, gotErr)
	}
}
