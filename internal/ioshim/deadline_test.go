package ioshim

import (
	"testing"
	"time"
)

type countingNotifier struct{ fired chan struct{} }

func (n *countingNotifier) Notify() { close(n.fired) }

func TestAfterFiresOnce(t *testing.T) {
	n := &countingNotifier{fired: make(chan struct{})}
	After(10*time.Millisecond, n)

	select {
	case <-n.fired:
	case <-time.After(time.Second):
		t.Fatal("notifier never fired")
	}
}

func TestStopPreventsNotification(t *testing.T) {
	n := &countingNotifier{fired: make(chan struct{})}
	dn := After(50*time.Millisecond, n)
	if !dn.Stop() {
		t.Fatal("Stop() = false, want true for a timer that had not fired yet")
	}

	select {
	case <-n.fired:
		t.Fatal("notifier fired despite Stop()")
	case <-time.After(100 * time.Millisecond):
	}
}
