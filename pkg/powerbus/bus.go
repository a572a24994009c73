// SPDX-License-Identifier: BSD-3-Clause

package powerbus

import (
	"sync"

	"github.com/n900/modemd/pkg/powerstate"
)

// Observer receives every power state assignment the state machine
// makes, including self-transitions (the machine re-entering the state
// it was already in counts as an assignment too).
type Observer interface {
	OnPowerState(powerstate.State)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(powerstate.State)

func (f ObserverFunc) OnPowerState(s powerstate.State) { f(s) }

// OnlineCallback is invoked exactly once when a pending SetOnline
// transition completes, successfully or not. mtcsupervisor.Supervisor
// owns the pending slot for it, since completion is driven by an
// asynchronous MTC state indication Supervisor observes directly; Bus
// only fans out power-state assignments.
type OnlineCallback func(online bool, err error)

// Bus is the single-subscriber publisher the power state machine reports
// through. Only one Observer may be registered, matching the
// single-threaded, single in-flight-request model described in the
// concurrency design.
type Bus struct {
	mu       sync.Mutex
	observer Observer
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe installs the bus's single observer, replacing any previous
// one.
func (b *Bus) Subscribe(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observer = o
}

// Publish notifies the registered observer, if any, of a new power
// state.
func (b *Bus) Publish(s powerstate.State) {
	b.mu.Lock()
	o := b.observer
	b.mu.Unlock()
	if o != nil {
		o.OnPowerState(s)
	}
}
