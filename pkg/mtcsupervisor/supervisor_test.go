// SPDX-License-Identifier: BSD-3-Clause

package mtcsupervisor

import (
	"testing"
	"time"

	"github.com/n900/modemd/pkg/mtc"
	"github.com/n900/modemd/pkg/powerstate"
)

func newTestSupervisor(t *testing.T) (*Supervisor, *mtc.Fake, *[]bool) {
	t.Helper()
	tr := mtc.NewFake()
	var poweredTrace []bool
	s := New(tr, func(powered bool) { poweredTrace = append(poweredTrace, powered) },
		WithShutdownSyncPoll(5*time.Millisecond))
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, tr, &poweredTrace
}

func waitFor(t *testing.T, cond func() bool) {
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

// Entering OffStarted retries POWER_OFF_REQ until accepted and polls
// SHUTDOWN_SYNC_REQ until the FSM reports a stop state; once the modem
// has been reported powered, the READY indication carrying POWER_OFF
// flips reported to false exactly once.
func TestGracefulShutdown(t *testing.T) {
	s, tr, trace := newTestSupervisor(t)

	tr.Deliver(mtc.StateNormal, mtc.SubkindReady)
	waitFor(t, func() bool { return len(*trace) == 1 && (*trace)[0] })

	tr.PowerOffAccepted = false
	s.OnPowerState(powerstate.OffStarted)

	waitFor(t, func() bool { return tr.ShutdownSyncReqCount() > 0 })
	waitFor(t, func() bool { return tr.PowerOffReqCount() > 0 })

	tr.Deliver(mtc.StatePowerOff, mtc.SubkindReady)
	waitFor(t, func() bool { return len(*trace) == 2 && !(*trace)[1] })

	tr.PowerOffAccepted = true
	waitFor(t, func() bool { return tr.PowerOffReqCount() >= 2 })

	before := tr.ShutdownSyncReqCount()
	s.OnPowerState(powerstate.OffWaiting)
	time.Sleep(20 * time.Millisecond)
	after := tr.ShutdownSyncReqCount()
	if after-before > 2 {
		t.Fatalf("expected shutdown sync polling to have stopped, got %d more calls", after-before)
	}
}

// On entering On, the supervisor queries modem state and reports powered
// status; on STATE_INFO_IND(READY) with success, a pending online
// callback completes with true.
func TestOnEntryQueryAndOnlineCallback(t *testing.T) {
	s, tr, trace := newTestSupervisor(t)

	tr.StateQueryCurrent = mtc.StateNormal
	var got bool
	var gotErr error
	done := make(chan struct{})
	if err := s.AwaitOnline(true, func(online bool, err error) {
		got, gotErr = online, err
		close(done)
	}); err != nil {
		t.Fatalf("AwaitOnline: %v", err)
	}

	s.OnPowerState(powerstate.On)
	waitFor(t, func() bool { return len(*trace) == 1 && (*trace)[0] })

	tr.Deliver(mtc.StateNormal, mtc.SubkindReady)
	<-done
	if !got || gotErr != nil {
		t.Fatalf("expected successful online completion, got %v %v", got, gotErr)
	}
}

// A pending online callback completes with failure when the reported
// state is not NORMAL.
func TestOnlineCallbackFailsOnNonNormalState(t *testing.T) {
	s, tr, _ := newTestSupervisor(t)

	var gotErr error
	done := make(chan struct{})
	if err := s.AwaitOnline(true, func(_ bool, err error) {
		gotErr = err
		close(done)
	}); err != nil {
		t.Fatalf("AwaitOnline: %v", err)
	}

	tr.Deliver(mtc.StateRFInactive, mtc.SubkindReady)
	<-done
	if gotErr != ErrOnlineTransitionFailed {
		t.Fatalf("expected ErrOnlineTransitionFailed, got %v", gotErr)
	}
}
