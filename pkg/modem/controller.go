// SPDX-License-Identifier: BSD-3-Clause

package modem

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cirello.io/oversight/v2"
	"github.com/nats-io/nats.go"
	"github.com/n900/modemd/pkg/fsm"
	"github.com/n900/modemd/pkg/linkmonitor"
	"github.com/n900/modemd/pkg/log"
	"github.com/n900/modemd/pkg/mtc"
	"github.com/n900/modemd/pkg/mtcsupervisor"
	"github.com/n900/modemd/pkg/powerbus"
	"github.com/n900/modemd/pkg/powerstate"
)

// GPIOEffector is the GPIO sequencing surface Probe drives, plus the
// probe step that discovers which control lines exist. *gpio.Effector
// satisfies it; tests use a fake.
type GPIOEffector interface {
	fsm.Effector
	Probe() error
}

// StateName maps a PowerState to the stable ASCII identifier the
// original driver logs, for parity with n900_power_state_name.
func StateName(s powerstate.State) string {
	switch s {
	case powerstate.None:
		return "POWER_NONE_STATE"
	case powerstate.OnStarted:
		return "POWER_ON_STARTED_STATE"
	case powerstate.On:
		return "POWER_ON_STATE"
	case powerstate.OnReset:
		return "POWER_ON_RESET_STATE"
	case powerstate.OnFailed:
		return "POWER_ON_FAILED_STATE"
	case powerstate.OffStarted:
		return "POWER_OFF_STARTED_STATE"
	case powerstate.OffWaiting:
		return "POWER_OFF_WAITING_STATE"
	case powerstate.Off:
		return "POWER_OFF_STATE"
	default:
		return "<UNKNOWN>"
	}
}

var (
	singletonMu     sync.Mutex
	singletonActive bool
)

type requestKind int

const (
	reqEnable requestKind = iota
	reqDisable
	reqRemove
	reqSetOnline
	reqStatus
)

type request struct {
	kind     requestKind
	userdata any
	online   bool
	cb       powerbus.OnlineCallback
	status   *Status
	resp     chan error
}

// Status is a point-in-time snapshot of the Controller's power state and
// requested target, for callers that only need a read (the NATS facade,
// diagnostics) rather than a transition.
type Status struct {
	State  powerstate.State
	Target powerstate.Target
}

// Controller is the top-level object gluing GPIOEffector, LinkMonitor,
// PowerFSM, the MTC transport, MTCSupervisor, and PowerBus together,
// and the single point enforcing the "one active instance" policy and
// the opaque-userdata identity check described for probe/enable/
// disable/remove/set_online.
type Controller struct {
	cfg *Config
	log *slog.Logger

	monitor    linkmonitor.Monitor
	transport  mtc.Transport
	ownsDial   bool
	bus        *powerbus.Bus
	fsm        *fsm.FSM
	supervisor *mtcsupervisor.Supervisor

	mu       sync.Mutex
	probed   bool
	removed  bool
	userdata any
	observer powerbus.Observer

	linkCh chan linkmonitor.Edge
	reqCh  chan *request
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds an unprobed Controller. Call Probe before Enable, Disable,
// SetOnline, or Remove.
func New(opts ...Option) *Controller {
	return &Controller{
		cfg:    newConfig(opts...),
		log:    log.GetGlobalLogger().With("component", "modem.controller"),
		linkCh: make(chan linkmonitor.Edge, 8),
		reqCh:  make(chan *request),
	}
}

// Name identifies this Controller in logs and the supervision tree.
func (c *Controller) Name() string { return "modem" }

// Probe discovers the GPIO layout, starts the link monitor on ifaceName,
// and registers observer as the single recipient of power-state changes.
// userdata is an opaque token compared on every later Enable, Disable,
// Remove, and SetOnline call, mirroring the original driver's void*
// identity check. Only one Controller process-wide may be probed at a
// time; a second call anywhere in the process fails with ErrBusy.
//
// ipcConn is only used when no mtc.Transport was supplied via
// WithTransport; it dials a NATSTransport against the embedded broker
// the rest of the process shares. It may be nil when WithTransport was
// used (as tests do, with mtc.NewFake).
func (c *Controller) Probe(ctx context.Context, ipcConn nats.InProcessConnProvider, ifaceName string, observer powerbus.Observer, userdata any) error {
	c.mu.Lock()
	if c.probed {
		c.mu.Unlock()
		return ErrAlreadyProbed
	}
	c.mu.Unlock()

	if c.cfg.effector == nil {
		return ErrNoEffector
	}
	if c.cfg.monitorFactory == nil {
		return fmt.Errorf("modem: probe: %w", ErrNoEffector)
	}

	singletonMu.Lock()
	if singletonActive {
		singletonMu.Unlock()
		return ErrBusy
	}
	singletonActive = true
	singletonMu.Unlock()

	if err := c.cfg.effector.Probe(); err != nil {
		c.releaseSingleton()
		return fmt.Errorf("modem: probe gpio: %w", err)
	}

	transport := c.cfg.transport
	if transport == nil {
		if ipcConn == nil {
			c.releaseSingleton()
			return fmt.Errorf("modem: probe: no transport and no ipc connection provided")
		}
		dialed, err := mtc.Dial(ipcConn, c.cfg.transportOpts...)
		if err != nil {
			c.releaseSingleton()
			return fmt.Errorf("modem: dial transport: %w", err)
		}
		transport = dialed
		c.ownsDial = true
	}

	c.bus = powerbus.New()
	c.fsm = fsm.New(c.cfg.effector, c.bus, c.cfg.fsmOpts...)
	c.transport = transport
	c.supervisor = mtcsupervisor.New(transport, c.onPoweredChange, c.cfg.supervisorOpts...)
	c.bus.Subscribe(powerbus.ObserverFunc(c.onPowerState))

	if err := c.supervisor.Start(); err != nil {
		c.releaseSingleton()
		return fmt.Errorf("modem: start supervisor: %w", err)
	}

	c.monitor = c.cfg.monitorFactory(ifaceName)
	if err := c.monitor.Start(c.onLinkEdge); err != nil {
		c.releaseSingleton()
		return fmt.Errorf("modem: start link monitor: %w", err)
	}

	if _, err := transport.StartupSynqReq(ctx); err != nil {
		c.log.Warn("startup synchronization request failed", "error", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})

	c.mu.Lock()
	c.probed = true
	c.observer = observer
	c.userdata = userdata
	c.mu.Unlock()

	tree := oversight.New(
		oversight.NeverHalt(),
		oversight.DefaultRestartStrategy(),
	)
	if err := tree.Add(c.superviseLinkMonitor, oversight.Transient(), oversight.Timeout(5*time.Second), "linkmonitor"); err != nil {
		c.log.Warn("failed to add link monitor to supervision tree", "error", err)
	}

	go func() {
		defer close(c.done)
		_ = tree.Start(runCtx)
	}()
	go c.run(runCtx)

	return nil
}

func (c *Controller) releaseSingleton() {
	singletonMu.Lock()
	singletonActive = false
	singletonMu.Unlock()
}

// Enable requests the modem power on, matching n900_gpio_enable's
// semantics of returning success immediately and letting PowerFSM make
// progress asynchronously.
func (c *Controller) Enable(ctx context.Context, userdata any) error {
	return c.do(ctx, &request{kind: reqEnable, userdata: userdata})
}

// Disable requests the modem power off.
func (c *Controller) Disable(ctx context.Context, userdata any) error {
	return c.do(ctx, &request{kind: reqDisable, userdata: userdata})
}

// Remove tears down the Controller: it stops the link monitor, releases
// the MTC transport, stops the event loop, and frees the process-wide
// singleton slot. It does not cancel a power-state timeout that is
// already armed; once the event loop has stopped, that timeout's expiry
// is not acted on. A Controller is not reusable after Remove.
func (c *Controller) Remove(ctx context.Context, userdata any) error {
	return c.do(ctx, &request{kind: reqRemove, userdata: userdata})
}

// Status reports the current power state and requested target. It is
// safe to call concurrently with Enable/Disable/SetOnline; like them it
// is serialized through the event loop rather than reading fsm.FSM's
// state directly, since FSM.State and FSM.Target are only safe to call
// from the goroutine that owns the machine.
func (c *Controller) Status(ctx context.Context, userdata any) (Status, error) {
	st := &Status{}
	err := c.do(ctx, &request{kind: reqStatus, userdata: userdata, status: st})
	return *st, err
}

// SetOnline requests the modem transition to RF-active (online=true) or
// RF-inactive (online=false) state. It fails fast with ErrInvalidState
// if PowerState is not On or the last reported MTC state is
// SelftestFail; otherwise it issues MTC_STATE_REQ and arms the single
// pending online-transition callback, which cb receives exactly once,
// matching n900_modem_set_online.
func (c *Controller) SetOnline(ctx context.Context, online bool, userdata any, cb powerbus.OnlineCallback) error {
	return c.do(ctx, &request{kind: reqSetOnline, userdata: userdata, online: online, cb: cb})
}

func (c *Controller) do(ctx context.Context, req *request) error {
	c.mu.Lock()
	probed, removed := c.probed, c.removed
	c.mu.Unlock()
	if removed {
		return ErrRemoved
	}
	if !probed {
		return ErrNotProbed
	}

	req.resp = make(chan error, 1)
	select {
	case c.reqCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.resp:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run blocks until the Controller's background supervision tree and
// event loop have both stopped, which happens when ctx is cancelled or
// Remove is called. The event loop itself starts inside Probe, matching
// the original driver's mainloop already running before probe() is
// called; Run exists so a caller has something to block on for the
// Controller's lifetime.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	probed := c.probed
	c.mu.Unlock()
	if !probed {
		return ErrNotProbed
	}

	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		if err := c.teardown(); err != nil {
			c.log.Warn("teardown on context cancellation failed", "error", err)
		}
		return ctx.Err()
	}
}

func (c *Controller) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case edge := <-c.linkCh:
			c.fsm.NotifyLinkEdge(edge == linkmonitor.EdgeUp)
		case ev := <-c.fsm.Events():
			c.fsm.Fire(ev)
		case req := <-c.reqCh:
			c.handleRequest(ctx, req)
		}
	}
}

func (c *Controller) handleRequest(ctx context.Context, req *request) {
	c.mu.Lock()
	match := c.userdataMatches(req.userdata)
	c.mu.Unlock()
	if !match {
		req.resp <- ErrBadUserdata
		return
	}

	switch req.kind {
	case reqEnable:
		c.fsm.Fire(fsm.PowerOnEvent)
		req.resp <- nil

	case reqDisable:
		c.fsm.Fire(fsm.PowerOffEvent)
		req.resp <- nil

	case reqRemove:
		req.resp <- c.teardown()

	case reqSetOnline:
		req.resp <- c.setOnline(ctx, req.online, req.cb)

	case reqStatus:
		req.status.State = c.fsm.State()
		req.status.Target = c.fsm.Target()
		req.resp <- nil
	}
}

func (c *Controller) setOnline(ctx context.Context, online bool, cb powerbus.OnlineCallback) error {
	if c.fsm.State() != powerstate.On || c.supervisor.MTCState() == mtc.StateSelftestFail {
		return ErrInvalidState
	}

	desired := mtc.StateRFInactive
	if online {
		desired = mtc.StateNormal
	}

	if err := c.supervisor.AwaitOnline(online, cb); err != nil {
		return fmt.Errorf("modem: set online: %w", err)
	}

	go func() {
		cause, err := c.transport.StateReq(ctx, desired)
		if err != nil {
			c.log.Warn("online state request failed", "error", err)
			c.supervisor.CompleteNow(false, err)
			return
		}
		switch cause {
		case mtc.CauseOK:
			// completes on the next STATE_INFO_IND(READY).
		case mtc.CauseAlreadyActive:
			c.supervisor.CompleteNow(online, nil)
		default:
			c.supervisor.CompleteNow(false, fmt.Errorf("mtc: state request refused: cause %d", cause))
		}
	}()

	return nil
}

func (c *Controller) teardown() error {
	c.mu.Lock()
	if c.removed {
		c.mu.Unlock()
		return nil
	}
	c.removed = true
	c.mu.Unlock()

	if err := c.monitor.Stop(); err != nil {
		c.log.Warn("stopping link monitor", "error", err)
	}
	if err := c.supervisor.Close(); err != nil {
		c.log.Warn("closing mtc supervisor", "error", err)
	}
	if c.ownsDial {
		if err := c.transport.Close(); err != nil {
			c.log.Warn("closing mtc transport", "error", err)
		}
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.releaseSingleton()
	return nil
}

// userdataMatches compares the caller's token against the one supplied
// to Probe. Equality on two interface values holding a non-comparable
// dynamic type panics instead of returning false; that is treated as a
// mismatch, since the caller supplied a token Probe could never have
// produced a match for.
func (c *Controller) userdataMatches(userdata any) (match bool) {
	defer func() {
		if recover() != nil {
			match = false
		}
	}()
	return userdata == c.userdata
}

func (c *Controller) onLinkEdge(edge linkmonitor.Edge) {
	select {
	case c.linkCh <- edge:
	default:
		c.log.Warn("link edge channel full, dropping", "edge", edge.String())
	}
}

func (c *Controller) onPowerState(s powerstate.State) {
	c.supervisor.OnPowerState(s)

	c.mu.Lock()
	observer := c.observer
	c.mu.Unlock()
	if observer != nil {
		observer.OnPowerState(s)
	}
}

func (c *Controller) onPoweredChange(powered bool) {
	c.log.Debug("modem: reported power status changed", "powered", powered)
}

// superviseLinkMonitor is the oversight.ChildProcess that watches the
// netlink reader: it returns an error once the reader goroutine has
// exited, so the supervision tree sees the exit. It does not start the
// reader again. A monitor without a Stopped channel is waited on until
// ctx is done.
func (c *Controller) superviseLinkMonitor(ctx context.Context) error {
	type stopper interface{ Stopped() <-chan struct{} }
	sc, ok := c.monitor.(stopper)
	if !ok {
		<-ctx.Done()
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-sc.Stopped():
		return fmt.Errorf("linkmonitor: reader goroutine exited")
	}
}
