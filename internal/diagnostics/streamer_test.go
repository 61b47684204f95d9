package diagnostics

import (
	"testing"
	"time"
)

func TestStreamerBroadcastsToSubscribers(t *testing.T) {
	s := New(10 * time.Millisecond)
	defer s.Close()

	sub := &subscriber{send: make(chan Snapshot, 4)}
	s.register <- sub

	snap := Snapshot{NumFutures: 3, Workers: []WorkerSnapshot{{Index: 0, Lifecycle: "Running"}}}
	s.Publish(snap)

	select {
	case got := <-sub.send:
		if got.NumFutures != 3 {
			t.Fatalf("NumFutures = %d, want 3", got.NumFutures)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber never received a snapshot")
	}
}

func TestStreamerUnregisterClosesSendChannel(t *testing.T) {
	s := New(10 * time.Millisecond)
	defer s.Close()

	sub := &subscriber{send: make(chan Snapshot, 1)}
	s.register <- sub
	// register and unregister are separate channels, so the hub may take
	// them in either order; wait until the registration has landed.
	for registered := false; !registered; {
		s.mu.RLock()
		_, registered = s.subscribers[sub]
		s.mu.RUnlock()
		if !registered {
			time.Sleep(time.Millisecond)
		}
	}
	s.unregister <- sub

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("send channel was never closed")
		}
	}
}
