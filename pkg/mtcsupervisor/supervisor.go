// SPDX-License-Identifier: BSD-3-Clause

package mtcsupervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arunsworld/nursery"
	"github.com/n900/modemd/pkg/log"
	"github.com/n900/modemd/pkg/mtc"
	"github.com/n900/modemd/pkg/powerbus"
	"github.com/n900/modemd/pkg/powerstate"
)

// PoweredSink is notified exactly once per change in reported powered
// status, as classified by mtc.ModemState.Powered.
type PoweredSink func(powered bool)

// Supervisor implements the MTC side of the graceful power-down
// handshake and the powered-status/online-callback bookkeeping that
// rides on top of PowerFSM's GPIO-level transitions.
type Supervisor struct {
	cfg       *Config
	transport mtc.Transport
	poweredCb PoweredSink
	log       *slog.Logger

	mu        sync.Mutex
	started   bool
	mtcState  mtc.ModemState
	reported  bool
	haveState bool
	online    bool
	pending   powerbus.OnlineCallback
	offCancel context.CancelFunc
}

var _ powerbus.Observer = (*Supervisor)(nil)

// New creates a Supervisor driving transport and reporting powered-status
// changes to poweredCb.
func New(transport mtc.Transport, poweredCb PoweredSink, opts ...Option) *Supervisor {
	return &Supervisor{
		cfg:       newConfig(opts...),
		transport: transport,
		poweredCb: poweredCb,
		log:       log.GetGlobalLogger().With("component", "mtcsupervisor"),
	}
}

// Start subscribes to STATE_INFO_IND. It must be called once before the
// supervisor is attached to a powerbus.Bus.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	return s.transport.Subscribe(s.handleIndication)
}

// AwaitOnline registers the single pending online-transition callback,
// replacing any previous one, so at most one is outstanding. desired
// records the caller's intended online state for logging only; the
// callback is completed by the next STATE_INFO_IND(READY) or by
// CompleteNow.
func (s *Supervisor) AwaitOnline(desired bool, cb powerbus.OnlineCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.online = desired
	s.pending = cb
	return nil
}

// OnPowerState is the powerbus.Observer hook. It is invoked synchronously
// from the single controller goroutine that owns PowerFSM, so it must
// never block; the graceful-shutdown request/poll pair and the On-entry
// state query run on their own goroutines.
func (s *Supervisor) OnPowerState(state powerstate.State) {
	switch state {
	case powerstate.OffStarted:
		s.startGracefulShutdown()
	case powerstate.OnStarted, powerstate.Off, powerstate.OffWaiting:
		s.stopGracefulShutdown()
	case powerstate.On:
		go s.queryOnEntry()
	}
}

// Close releases the transport.
func (s *Supervisor) Close() error {
	s.stopGracefulShutdown()
	return s.transport.Close()
}

// MTCState returns the last mtc_state reported by the modem, for the
// SelftestFail check SetOnline performs before issuing STATE_REQ.
func (s *Supervisor) MTCState() mtc.ModemState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mtcState
}

// CompleteNow completes the pending online callback immediately, without
// waiting for a STATE_INFO_IND. It is used for STATE_RESP causes that
// settle the outcome synchronously (ALREADY_ACTIVE, or any failure cause
// other than OK).
func (s *Supervisor) CompleteNow(online bool, err error) {
	s.mu.Lock()
	cb := s.pending
	s.pending = nil
	s.mu.Unlock()
	if cb != nil {
		cb(online, err)
	}
}

func (s *Supervisor) queryOnEntry() {
	current, _, err := s.transport.StateQuery(context.Background())
	if err != nil {
		s.log.Warn("state query on power-on failed", "error", err)
		return
	}
	s.applyMTCState(current, false)
}

// startGracefulShutdown launches the POWER_OFF_REQ retry loop and the
// independent SHUTDOWN_SYNC_REQ poll, both cancelled together by
// stopGracefulShutdown once the FSM leaves OffStarted.
func (s *Supervisor) startGracefulShutdown() {
	s.mu.Lock()
	if s.offCancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.offCancel = cancel
	s.mu.Unlock()

	go func() {
		_ = nursery.RunConcurrentlyWithContext(ctx,
			func(ctx context.Context, _ chan error) { s.powerOffRetryLoop(ctx) },
			func(ctx context.Context, _ chan error) { s.shutdownSyncPollLoop(ctx) },
		)
	}()
}

func (s *Supervisor) stopGracefulShutdown() {
	s.mu.Lock()
	cancel := s.offCancel
	s.offCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (s *Supervisor) powerOffRetryLoop(ctx context.Context) {
	for {
		accepted, err := s.transport.PowerOffReq(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("power-off request failed, retrying", "error", err)
		} else if accepted {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.shutdownSyncPoll):
		}
	}
}

func (s *Supervisor) shutdownSyncPollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.shutdownSyncPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.transport.ShutdownSyncReq(); err != nil {
				s.log.Warn("shutdown sync request failed", "error", err)
			}
		}
	}
}

func (s *Supervisor) handleIndication(state mtc.ModemState, subkind mtc.IndSubkind) {
	if subkind != mtc.SubkindReady {
		return
	}
	s.applyMTCState(state, true)
}

// applyMTCState records state and reports a powered-status change. Only
// a STATE_INFO_IND(READY) passes completePending, so the On-entry state
// query never settles the pending online callback.
func (s *Supervisor) applyMTCState(state mtc.ModemState, completePending bool) {
	s.mu.Lock()
	s.mtcState = state
	s.haveState = true

	var cb powerbus.OnlineCallback
	if completePending && s.pending != nil {
		cb = s.pending
		s.pending = nil
	}

	newReported := state.Powered()
	changed := newReported != s.reported
	s.reported = newReported
	s.mu.Unlock()

	if cb != nil {
		if state == mtc.StateNormal {
			cb(true, nil)
		} else {
			cb(false, ErrOnlineTransitionFailed)
		}
	}
	if changed && s.poweredCb != nil {
		s.poweredCb(newReported)
	}
}
