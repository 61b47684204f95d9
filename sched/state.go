package sched

import "sync/atomic"

// Worker lifecycle values, packed into the low bits of a workerState word.
// These mirror the WORKER_* constants from the original tokio-threadpool
// worker state machine: a worker is always in exactly one of these states,
// with an orthogonal "pushed" bit tracking sleeper-stack membership.
const (
	workerShutdown uint64 = iota
	workerRunning
	workerSleeping
	workerNotified
	workerSignaled
)

const (
	lifecycleBits  = 3
	lifecycleMask  = uint64(1)<<lifecycleBits - 1
	pushedBit      = uint64(1) << lifecycleBits
	workerStateMax = pushedBit << 1
)

// workerState is the packed atomic word described in SPEC_FULL §3: a
// lifecycle value plus a single "pushed" bit recording whether this
// worker's index is currently linked into the pool's sleeper stack.
type workerState uint64

func packWorkerState(lifecycle uint64, pushed bool) workerState {
	w := workerState(lifecycle & lifecycleMask)
	if pushed {
		w |= workerState(pushedBit)
	}
	return w
}

func (w workerState) lifecycle() uint64 { return uint64(w) & lifecycleMask }
func (w workerState) pushed() bool      { return uint64(w)&pushedBit != 0 }

func (w workerState) withLifecycle(l uint64) workerState {
	return workerState((uint64(w) &^ lifecycleMask) | (l & lifecycleMask))
}

func (w workerState) withPushed(pushed bool) workerState {
	if pushed {
		return workerState(uint64(w) | pushedBit)
	}
	return workerState(uint64(w) &^ pushedBit)
}

// atomicWorkerState is a thin wrapper giving workerState the load/CAS
// vocabulary used throughout worker.go and pool.go, grounded in the same
// "packed atomic word" technique the teacher's advanced_metrics.go and
// work_stealer.go use ad hoc (raw int64 counters) — here generalized into
// one reusable bit-packed word per the spec's design notes (§9).
type atomicWorkerState struct {
	v atomic.Uint64
}

func (a *atomicWorkerState) init(s workerState) { a.v.Store(uint64(s)) }
func (a *atomicWorkerState) load() workerState  { return workerState(a.v.Load()) }

func (a *atomicWorkerState) compareAndSwap(old, new workerState) bool {
	return a.v.CompareAndSwap(uint64(old), uint64(new))
}

// poolState packs the pool-wide outstanding-future count together with the
// terminated bit, so a task's completion decrement and any subsequent
// termination check happen atomically (SPEC_FULL §3, original §9).
type poolState uint64

const terminatedBit = uint64(1)

func packPoolState(numFutures uint64, terminated bool) poolState {
	p := poolState(numFutures << 1)
	if terminated {
		p |= poolState(terminatedBit)
	}
	return p
}

func (p poolState) numFutures() uint64 { return uint64(p) >> 1 }
func (p poolState) terminated() bool   { return uint64(p)&terminatedBit != 0 }

func (p poolState) withNumFutures(n uint64) poolState {
	next := poolState(n << 1)
	if p.terminated() {
		next |= poolState(terminatedBit)
	}
	return next
}

func (p poolState) withTerminated(t bool) poolState {
	if t {
		return p | poolState(terminatedBit)
	}
	return p &^ poolState(terminatedBit)
}

type atomicPoolState struct {
	v atomic.Uint64
}

func (a *atomicPoolState) init(s poolState) { a.v.Store(uint64(s)) }
func (a *atomicPoolState) load() poolState  { return poolState(a.v.Load()) }

func (a *atomicPoolState) compareAndSwap(old, new poolState) bool {
	return a.v.CompareAndSwap(uint64(old), uint64(new))
}

// sleepHead is the Treiber-stack head word: a worker index plus a
// generation counter that defeats the ABA problem on pop/push races
// (SPEC_FULL §9, "Sleeper stack as a Treiber stack").
type sleepHead uint64

// noSleeper is the sentinel index meaning "stack is empty". Worker counts
// are validated to stay well below this at pool construction.
const noSleeper = uint32(0xFFFFFFFF)

func packSleepHead(idx uint32, gen uint32) sleepHead {
	return sleepHead(uint64(gen)<<32 | uint64(idx))
}

func (s sleepHead) index() uint32      { return uint32(s) }
func (s sleepHead) generation() uint32 { return uint32(s >> 32) }

type atomicSleepHead struct {
	v atomic.Uint64
}

func (a *atomicSleepHead) init(s sleepHead) { a.v.Store(uint64(s)) }
func (a *atomicSleepHead) load() sleepHead  { return sleepHead(a.v.Load()) }

func (a *atomicSleepHead) compareAndSwap(old, new sleepHead) bool {
	return a.v.CompareAndSwap(uint64(old), uint64(new))
}
