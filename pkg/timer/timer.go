// SPDX-License-Identifier: BSD-3-Clause

package timer

import (
	"sync"
	"time"
)

// Timer arms and cancels a single outstanding callback. It is safe for
// concurrent use, though the power state machine only ever calls it from
// its own event loop goroutine.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
}

// New returns an idle Timer.
func New() *Timer {
	return &Timer{}
}

// Arm cancels any previously armed timer and schedules fire to run after
// d. fire runs on its own goroutine, as with time.AfterFunc; callers that
// need to touch single-threaded state must hand the event back to their
// own event loop rather than acting on it directly from fire.
func (t *Timer) Arm(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, fire)
}

// Cancel stops any armed timer. It is a no-op if nothing is armed, and
// safe to call more than once.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
