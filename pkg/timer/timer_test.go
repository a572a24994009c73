// SPDX-License-Identifier: BSD-3-Clause

package timer

import (
	"testing"
	"time"
)

func TestArmFires(t *testing.T) {
	tm := New()
	done := make(chan struct{})
	tm.Arm(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestArmCancelsPrevious(t *testing.T) {
	tm := New()
	fired := make(chan int, 2)
	tm.Arm(5*time.Millisecond, func() { fired <- 1 })
	tm.Arm(5*time.Millisecond, func() { fired <- 2 })

	select {
	case v := <-fired:
		if v != 2 {
			t.Fatalf("expected second arm to win, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	select {
	case v := <-fired:
		t.Fatalf("unexpected second fire: %d", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	tm := New()
	tm.Cancel()
	tm.Arm(time.Hour, func() {})
	tm.Cancel()
	tm.Cancel()
}
