// SPDX-License-Identifier: BSD-3-Clause

package powerbus

import (
	"testing"

	"github.com/n900/modemd/pkg/powerstate"
)

func TestPublishNotifiesObserver(t *testing.T) {
	b := New()
	var got []powerstate.State
	b.Subscribe(ObserverFunc(func(s powerstate.State) { got = append(got, s) }))

	b.Publish(powerstate.OnStarted)
	b.Publish(powerstate.OnStarted) // self-transition still notifies
	b.Publish(powerstate.On)

	want := []powerstate.State{powerstate.OnStarted, powerstate.OnStarted, powerstate.On}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
