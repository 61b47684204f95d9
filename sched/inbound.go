package sched

import "sync/atomic"

// inboundOutcome mirrors the original spec's Poll::{Empty, Inconsistent,
// Data} result from draining the MPSC inbound queue (original §4.4).
type inboundOutcome int

const (
	inboundEmpty inboundOutcome = iota
	inboundInconsistent
	inboundData
)

// inboundNode is one link in the intrusive MPSC queue.
type inboundNode struct {
	next atomic.Pointer[inboundNode]
	task Task
}

// inboundQueue is the lock-free multi-producer, single-consumer queue
// described in SPEC_FULL §3 / original §4.4: any thread may push, only
// the owning worker polls. This is Dmitry Vyukov's intrusive MPSC queue
// algorithm — the same construction the original tokio-threadpool source
// uses for its per-worker inbound queue — chosen over the teacher's
// mutex+condvar ThreadSafeQueue because the spec requires a poll result
// that distinguishes "empty" from "a push is in flight" (Inconsistent),
// a distinction a plain mutex-guarded slice cannot expose without itself
// becoming the contention point the spec is trying to avoid.
//
// The queue always holds one dummy "stub" node so push and poll never
// have to special-case an empty queue's head/tail simultaneously.
type inboundQueue struct {
	head atomic.Pointer[inboundNode] // producer end
	tail *inboundNode                // consumer end, owned by the single poller
}

func newInboundQueue() *inboundQueue {
	stub := &inboundNode{}
	q := &inboundQueue{tail: stub}
	q.head.Store(stub)
	return q
}

// push enqueues a task. Safe for any number of concurrent producers.
func (q *inboundQueue) push(t Task) {
	n := &inboundNode{task: t}
	prev := q.head.Swap(n)
	// Between the Swap above and this Store, a concurrent poll() that
	// reaches prev sees prev.next == nil and must report Inconsistent
	// rather than Empty — this is the race the spec requires callers not
	// to mistake for "no work".
	prev.next.Store(n)
}

// poll removes and returns the next task, in FIFO order. Must only be
// called by the single consumer (the owning worker).
func (q *inboundQueue) poll() (Task, inboundOutcome) {
	tail := q.tail
	next := tail.next.Load()

	if next == nil {
		if q.head.Load() == tail {
			return nil, inboundEmpty
		}
		// A producer has swapped the head but not yet linked next: the
		// push is mid-flight.
		return nil, inboundInconsistent
	}

	// Advance past the stub/previous node, adopting next as the new stub
	// and returning the task it carried.
	q.tail = next
	task := next.task
	next.task = nil
	return task, inboundData
}
