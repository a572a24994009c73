// SPDX-License-Identifier: BSD-3-Clause

package fsm

import (
	"context"
	"log/slog"
	"time"

	"github.com/qmuntal/stateless"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/n900/modemd/pkg/log"
	"github.com/n900/modemd/pkg/powerbus"
	"github.com/n900/modemd/pkg/powerstate"
	"github.com/n900/modemd/pkg/telemetry"
	"github.com/n900/modemd/pkg/timer"
)

const tracerName = "modem-fsm"

// FSM is the modem power-lifecycle state machine. Fire is the only entry
// point and must only ever be called from a single goroutine; the
// machine keeps no locking of its own. The permitted-transition graph,
// guards and entry/exit actions are delegated to a stateless.StateMachine
// built in New; FSM itself supplies the triggers/states (Event,
// powerstate.State), the effector/timer/bus side effects the graph's
// entry and exit actions call, and the two retry self-loops the library's
// dynamic-permit machinery cannot express (see Fire).
type FSM struct {
	cfg      *Config
	effector Effector
	timer    *timer.Timer
	bus      *powerbus.Bus
	log      *slog.Logger
	tracer   trace.Tracer
	machine  *stateless.StateMachine

	powerOnAttempts metric.Int64Counter
	resetAttempts   metric.Int64Counter
	stateDuration   metric.Float64Histogram

	state      powerstate.State
	lastSource powerstate.State
	current    powerstate.LinkState
	target     powerstate.Target
	retries    int

	timerEvent Event
	haveTimer  bool

	stateEnteredAt time.Time
	events         chan Event
}

// New builds an FSM. effector and bus must not be nil; New does not
// check them, and every assignment is published on bus, matching
// invariant 4 of the power-lifecycle contract.
func New(effector Effector, bus *powerbus.Bus, opts ...Option) *FSM {
	f := &FSM{
		cfg:      newConfig(opts...),
		effector: effector,
		timer:    timer.New(),
		bus:      bus,
		log:      log.GetGlobalLogger(),
		tracer:   telemetry.GetTracer(tracerName),

		powerOnAttempts: telemetry.MustCreateCounter(tracerName, "power_on_attempts_total",
			"Number of times the state machine has entered OnStarted", "1"),
		resetAttempts: telemetry.MustCreateCounter(tracerName, "reset_attempts_total",
			"Number of times the state machine has entered OnReset", "1"),
		stateDuration: telemetry.MustCreateHistogram(tracerName, "state_duration_seconds",
			"Time spent in a power state before the next transition", "s"),

		state:          powerstate.None,
		current:        powerstate.LinkNone,
		target:         powerstate.TargetNone,
		stateEnteredAt: time.Now(),
		events:         make(chan Event, 1),
	}
	f.machine = f.buildMachine()
	return f
}

// State returns the current power state.
func (f *FSM) State() powerstate.State { return f.state }

// Target returns the currently requested target link state.
func (f *FSM) Target() powerstate.Target { return f.target }

// Events delivers timer expirations. A timer's fire callback runs on its
// own goroutine (time.AfterFunc's contract); rather than calling Fire
// directly from there and risking concurrent mutation, it posts here, and
// the single owning goroutine (modem.Controller.Run's event loop) is
// expected to drain this channel and call Fire itself.
func (f *FSM) Events() <-chan Event { return f.events }

// Fire dispatches a single event through the state machine, matching
// gpio_power_state_machine's per-event switch. The pure bookkeeping each
// event case does unconditionally (target/current assignment, the
// power-on/link-up guard conditions) runs here; the state graph itself -
// which states may reach which on which event, and what runs on entry
// and exit - lives in the stateless.StateMachine built by buildMachine.
func (f *FSM) Fire(event Event) {
	_, span := f.tracer.Start(context.Background(), "Fire")
	defer span.End()
	span.SetAttributes(
		telemetry.StringAttr("event", event.String()),
		telemetry.StringAttr("state", f.state.String()),
	)

	f.log.Debug("fsm: event", "event", event.String(), "state", f.state.String())

	switch event {
	case PowerOnEvent:
		f.target = powerstate.TargetUp
		if f.current == powerstate.LinkNone {
			return
		}
		f.dispatch(event)

	case LinkDownEvent:
		f.current = powerstate.LinkDown
		f.dispatch(event)

	case PowerOnTimeoutEvent:
		// The retry-in-place case: the library's dynamic permits treat a
		// selector returning the source state as an internal transition
		// and skip OnEntry, but a power-on retry must always re-run
		// StartPowerOn and rearm the timer. Handle it directly instead of
		// routing it through the graph; every other destination from
		// OnStarted is a genuine transition and goes through FireCtx.
		if f.state == powerstate.OnStarted && f.target != powerstate.TargetDown && f.retries <= powerstate.PowerOnRetries {
			f.leaveState()
			_ = f.enterOnStarted(context.Background())
			return
		}
		f.dispatch(event)

	case RebootTimeoutEvent:
		if f.state == powerstate.OnReset && f.target != powerstate.TargetDown && f.retries <= powerstate.ResetRetries {
			f.leaveState()
			_ = f.enterOnReset(context.Background())
			return
		}
		f.dispatch(event)

	case LinkUpEvent:
		f.current = powerstate.LinkUp
		switch f.state {
		case powerstate.OffStarted, powerstate.OffWaiting, powerstate.Off, powerstate.OnFailed:
			f.log.Warn("fsm: link up while modem should be powered off", "state", f.state.String())
		}
		f.dispatch(event)

	case PowerOffEvent:
		f.target = powerstate.TargetDown
		f.dispatch(event)

	case PowerOffImmediatelyEvent:
		f.dispatch(event)

	case PowerOffTimeoutEvent:
		f.log.Warn("fsm: power off timed out")
		f.dispatch(event)

	case PowerOffCompleteEvent:
		f.dispatch(event)

	default:
		f.log.Warn("fsm: unhandled event", "event", event.String())
	}
}

// dispatch fires event through the configured graph. An error here means
// event isn't permitted from the current state - every such combination
// in this machine is either a deliberately configured Ignore (already
// handled inside the graph with no error) or a timer event arriving
// after its owning state was already left, which is benign.
func (f *FSM) dispatch(event Event) {
	if err := f.machine.FireCtx(context.Background(), event); err != nil {
		f.log.Debug("fsm: event not permitted in current state",
			"event", event.String(), "state", f.state.String(), "error", err)
	}
}

// NotifyLinkEdge is the entry point the link monitor's edge callback
// calls; it clears the reset-request line on the rising edge before
// dispatching, matching phonet_status_cb.
func (f *FSM) NotifyLinkEdge(up bool) {
	if up {
		f.effector.ClearResetRequest()
		f.Fire(LinkUpEvent)
	} else {
		f.Fire(LinkDownEvent)
	}
}

// buildMachine wires the power-state graph: gpio_power_set_state's
// oldState/newState switches become per-state OnExit/OnEntry actions, and
// gpio_power_state_machine's per-event, per-state dispatch becomes
// Permit/PermitDynamic/Ignore configuration. Guards read FSM fields
// directly (target, retries, the state being left) rather than trigger
// arguments, the same no-argument-closure shape the teacher's own
// GuardFunc uses.
func (f *FSM) buildMachine() *stateless.StateMachine {
	m := stateless.NewStateMachine(powerstate.None)

	allStates := []powerstate.State{
		powerstate.None, powerstate.OnStarted, powerstate.OnReset, powerstate.On,
		powerstate.OffStarted, powerstate.OffWaiting, powerstate.Off, powerstate.OnFailed,
	}
	for _, s := range allStates {
		state := s
		m.Configure(state).
			OnExit(func(ctx context.Context, args ...any) error {
				f.leaveState()
				return nil
			}).
			PermitDynamic(LinkDownEvent, f.selectOnLinkDown).
			PermitDynamic(PowerOffImmediatelyEvent, f.selectOff)
	}

	m.Configure(powerstate.None).
		Permit(PowerOnEvent, powerstate.OnStarted).
		Ignore(LinkUpEvent).
		Permit(PowerOffEvent, powerstate.Off)

	m.Configure(powerstate.OnStarted).
		Ignore(PowerOnEvent).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		PermitDynamic(PowerOnTimeoutEvent, f.selectPowerOnTimeout).
		Ignore(PowerOffEvent).
		OnEntry(f.enterOnStarted)

	m.Configure(powerstate.OnReset).
		Ignore(PowerOnEvent).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		PermitDynamic(RebootTimeoutEvent, f.selectRebootTimeout).
		Ignore(PowerOffEvent).
		OnEntry(f.enterOnReset)

	m.Configure(powerstate.On).
		Ignore(PowerOnEvent).
		Ignore(LinkUpEvent).
		Permit(PowerOffEvent, powerstate.OffStarted).
		OnEntry(f.enterOn)

	m.Configure(powerstate.OffStarted).
		Ignore(PowerOnEvent).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		Permit(PowerOffTimeoutEvent, powerstate.Off).
		Ignore(PowerOffEvent).
		OnEntry(f.enterOffStarted)

	m.Configure(powerstate.OffWaiting).
		Permit(PowerOnEvent, powerstate.OnStarted).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		Permit(PowerOffCompleteEvent, powerstate.Off).
		Ignore(PowerOffEvent).
		OnEntry(f.enterOffWaiting)

	m.Configure(powerstate.Off).
		Permit(PowerOnEvent, powerstate.OnStarted).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		Ignore(PowerOffEvent).
		OnEntry(f.enterOff)

	m.Configure(powerstate.OnFailed).
		Permit(PowerOnEvent, powerstate.OnStarted).
		PermitDynamic(LinkUpEvent, f.selectOnLinkUp).
		Permit(PowerOffEvent, powerstate.Off).
		OnEntry(f.enterOnFailed)

	return m
}

// selectOnLinkDown is LinkDownEvent's nested switch on target then state.
func (f *FSM) selectOnLinkDown(ctx context.Context, args ...any) (any, error) {
	switch f.target {
	case powerstate.TargetDown, powerstate.TargetNone:
		if f.state == powerstate.Off || f.state == powerstate.None {
			return powerstate.Off, nil
		}
		return powerstate.OffWaiting, nil
	default: // TargetUp
		switch f.state {
		case powerstate.None:
			return powerstate.OnStarted, nil
		case powerstate.OnStarted, powerstate.OnReset:
			return f.state, nil // internal transition: do nothing
		default:
			f.retries = 0
			return powerstate.OnReset, nil
		}
	}
}

// selectOff is PowerOffImmediatelyEvent: always Off, an internal
// transition (no-op) if already there.
func (f *FSM) selectOff(ctx context.Context, args ...any) (any, error) {
	return powerstate.Off, nil
}

// selectOnLinkUp is LinkUpEvent's destination once None/On (handled by
// Ignore) are excluded: target decides between finishing the shutdown in
// progress and declaring the modem up.
func (f *FSM) selectOnLinkUp(ctx context.Context, args ...any) (any, error) {
	if f.target == powerstate.TargetDown {
		return powerstate.OffStarted, nil
	}
	return powerstate.On, nil
}

// selectPowerOnTimeout only runs once Fire has already ruled out the
// retry-in-place case, so its destination always differs from OnStarted.
func (f *FSM) selectPowerOnTimeout(ctx context.Context, args ...any) (any, error) {
	if f.target == powerstate.TargetDown {
		return powerstate.OffStarted, nil
	}
	return powerstate.OnFailed, nil
}

// selectRebootTimeout mirrors selectPowerOnTimeout for the reset retry
// loop: retries are already known exhausted, or the target already known
// Down, by the time this selector runs.
func (f *FSM) selectRebootTimeout(ctx context.Context, args ...any) (any, error) {
	if f.target == powerstate.TargetDown {
		return powerstate.OffStarted, nil
	}
	return powerstate.OnStarted, nil
}

// leaveState is gpio_power_set_state's oldState half: record how long the
// state being left was held, run its exit action, and disarm its timer.
// It runs both as every configured state's OnExit action and directly
// from Fire's manual retry-in-place path.
func (f *FSM) leaveState() {
	elapsed := time.Since(f.stateEnteredAt).Seconds()
	telemetry.RecordDuration(context.Background(), f.stateDuration, elapsed,
		telemetry.StringAttr("state", f.state.String()))

	f.lastSource = f.state

	switch f.state {
	case powerstate.OnStarted:
		f.effector.FinishPowerOn()
	case powerstate.OnReset:
		f.effector.FinishReset()
	}

	if f.haveTimer {
		f.timer.Cancel()
		f.haveTimer = false
	}
}

// enterState records the new state and its entry time; it must run
// before any per-state entry action that publishes or reads f.state.
func (f *FSM) enterState(s powerstate.State) {
	f.state = s
	f.stateEnteredAt = time.Now()
}

func (f *FSM) armTimer(d time.Duration, ev Event) {
	f.timerEvent = ev
	f.haveTimer = true
	f.timer.Arm(d, func() {
		select {
		case f.events <- ev:
		default:
		}
	})
}

func (f *FSM) enterOnStarted(ctx context.Context, args ...any) error {
	f.enterState(powerstate.OnStarted)
	f.retries++
	f.armTimer(f.cfg.PowerOnTimeout, PowerOnTimeoutEvent)
	f.effector.StartPowerOn()
	telemetry.IncrementCounter(context.Background(), f.powerOnAttempts, 1)
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOnReset(ctx context.Context, args ...any) error {
	f.enterState(powerstate.OnReset)
	f.armTimer(f.cfg.RebootTimeout, RebootTimeoutEvent)
	f.retries++
	if f.retries > 1 {
		f.effector.StartReset()
	}
	telemetry.IncrementCounter(context.Background(), f.resetAttempts, 1)
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOn(ctx context.Context, args ...any) error {
	f.enterState(powerstate.On)
	f.retries = 0
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOffStarted(ctx context.Context, args ...any) error {
	f.enterState(powerstate.OffStarted)
	f.armTimer(f.cfg.PowerOffTimeout, PowerOffTimeoutEvent)
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOffWaiting(ctx context.Context, args ...any) error {
	f.enterState(powerstate.OffWaiting)
	f.effector.FinishPowerOff()
	f.armTimer(f.cfg.SettleTimeout, PowerOffCompleteEvent)
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOff(ctx context.Context, args ...any) error {
	f.enterState(powerstate.Off)
	if f.lastSource != powerstate.OffWaiting && f.lastSource != powerstate.OnFailed {
		f.effector.FinishPowerOff()
	}
	f.bus.Publish(f.state)
	return nil
}

func (f *FSM) enterOnFailed(ctx context.Context, args ...any) error {
	f.enterState(powerstate.OnFailed)
	f.log.Warn("fsm: link to modem cannot be established, giving up")
	f.effector.FinishPowerOff()
	f.bus.Publish(f.state)
	return nil
}
