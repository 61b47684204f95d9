// Package diagnostics fans a scheduler's state out to any number of
// websocket subscribers. Grounded in internal/websocket/manager.go's
// Manager: the same register/unregister/broadcast-over-a-hub-channel
// shape, adapted from "upload progress fan-out" to "scheduler state
// fan-out" (SPEC_FULL §6.7) — the home found for the teacher's
// gorilla/websocket dependency, which the scheduler core itself has no
// use for.
package diagnostics

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Snapshot is published on every coalesced tick. Its shape mirrors
// sched.Snapshot without importing sched directly, so diagnostics stays
// usable by anything that can produce one (keeps the dependency edge
// one-directional: sched does not import diagnostics).
type Snapshot struct {
	NumFutures uint64          `json:"numFutures"`
	Terminated bool            `json:"terminated"`
	Workers    []WorkerSnapshot `json:"workers"`
}

// WorkerSnapshot is one worker's row in a Snapshot.
type WorkerSnapshot struct {
	Index       int    `json:"index"`
	Lifecycle   string `json:"lifecycle"`
	QueueDepth  int64  `json:"queueDepth"`
	TasksRun    uint64 `json:"tasksRun"`
	TasksStolen uint64 `json:"tasksStolen"`
}

// subscriber wraps one live websocket connection.
type subscriber struct {
	conn *websocket.Conn
	send chan Snapshot
}

// Streamer holds zero or more subscribers and coalesces a producer's
// snapshots onto a ticker so a slow consumer never blocks whoever is
// publishing (the pool's run loop, in stealpool's case).
type Streamer struct {
	register   chan *subscriber
	unregister chan *subscriber
	publish    chan Snapshot

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	latest      Snapshot

	upgrader websocket.Upgrader

	done chan struct{}
	wg   sync.WaitGroup
}

// New starts a Streamer that coalesces published snapshots onto the
// given interval before broadcasting the latest one to every subscriber.
func New(coalesce time.Duration) *Streamer {
	s := &Streamer{
		register:    make(chan *subscriber, 16),
		unregister:  make(chan *subscriber, 16),
		publish:     make(chan Snapshot, 64),
		subscribers: make(map[*subscriber]struct{}),
		upgrader:    websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		done:        make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run(coalesce)
	return s
}

// Publish offers a new snapshot; if the internal buffer is full the
// oldest unconsumed snapshot is simply superseded, never blocking the
// caller.
func (s *Streamer) Publish(snap Snapshot) {
	select {
	case s.publish <- snap:
	default:
		select {
		case <-s.publish:
		default:
		}
		select {
		case s.publish <- snap:
		default:
		}
	}
}

func (s *Streamer) run(coalesce time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(coalesce)
	defer ticker.Stop()

	for {
		select {
		case sub := <-s.register:
			s.mu.Lock()
			s.subscribers[sub] = struct{}{}
			s.mu.Unlock()
		case sub := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.subscribers[sub]; ok {
				delete(s.subscribers, sub)
				close(sub.send)
			}
			s.mu.Unlock()
		case snap := <-s.publish:
			s.latest = snap
		case <-ticker.C:
			s.broadcast(s.latest)
		case <-s.done:
			s.mu.Lock()
			for sub := range s.subscribers {
				close(sub.send)
				delete(s.subscribers, sub)
			}
			s.mu.Unlock()
			return
		}
	}
}

func (s *Streamer) broadcast(snap Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		select {
		case sub.send <- snap:
		default:
			// Slow subscriber; drop this tick rather than block the hub.
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams snapshots to
// it until the connection closes.
func (s *Streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[diagnostics] upgrade failed: %v", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Snapshot, 8)}
	s.register <- sub

	defer func() {
		s.unregister <- sub
		conn.Close()
	}()

	for snap := range sub.send {
		if err := conn.WriteJSON(snap); err != nil {
			return
		}
	}
}

// Close stops the hub and disconnects every subscriber.
func (s *Streamer) Close() {
	close(s.done)
	s.wg.Wait()
}
