package sched

import (
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"
)

// workerEntry is the pool-internal state for one worker: its queues, its
// packed lifecycle word, and its slot in the sleeper stack. It is kept
// separate from the public Worker handle the same way the teacher keeps
// Worker (goroutine-facing) distinct from the entries WorkerPool tracks
// internally in work_stealer.go.
type workerEntry struct {
	idx  int
	pool *Pool

	state atomicWorkerState

	deque   *dequeue
	inbound *inboundQueue
	park    *parkGate

	// nextSleeper links this entry into the Treiber sleeper stack. Only
	// ever touched by the pool while holding the CAS that owns this slot,
	// so it needs no atomic type of its own.
	nextSleeper uint32

	rng *rand.Rand

	tasksRun    atomic.Uint64
	tasksStolen atomic.Uint64
}

// wakeToRunning implements original §4.2/§4.5 phase 1: a worker that
// finds itself Notified or Signaled must CAS back to Running (the
// pushed bit rides along untouched, withLifecycle only ever touches the
// lifecycle bits) before it can poll for work or park again. A prior
// Signaled state means some signalWork call found this worker already
// Running and could only mark it Signaled instead of waking anyone
// (signalWork's workerRunning case); that signal must be propagated to
// another candidate now that this worker has consumed it, or the work
// that triggered it can be stranded with no sleeper ever notified
// (original §4.3).
func (e *workerEntry) wakeToRunning() {
	for {
		old := e.state.load()
		lc := old.lifecycle()
		if lc != workerNotified && lc != workerSignaled {
			return
		}
		next := old.withLifecycle(workerRunning)
		if e.state.compareAndSwap(old, next) {
			if lc == workerSignaled {
				e.pool.signalWork()
			}
			return
		}
	}
}

// Worker is the public, goroutine-facing handle passed to Config.AroundWorker
// (original §6). Calling Run executes the worker's run loop until the pool
// shuts down; a wrapper that needs to do its own per-goroutine setup (pin a
// runtime lock, install a profiler label, recover from panics) calls Run
// from inside that setup, mirroring how the teacher's HighPerformanceServer
// wraps goroutine bodies in main.go.
type Worker struct {
	pool *Pool
	idx  int
}

// Index returns this worker's position in the pool, stable for its lifetime.
func (w *Worker) Index() int { return w.idx }

func (w *Worker) entry() *workerEntry { return w.pool.workers[w.idx] }

// Run executes the worker's run loop: drain inbound work, run local tasks,
// steal when idle, and park when there is nothing left anywhere, until the
// pool terminates and this worker has no work left of its own (original
// §4, worker.rs's do_run/run_task loop).
func (w *Worker) Run() {
	if !w.checkRunState() {
		w.finalize()
		return
	}

	// spins tracks original §4.1's two-tier spin policy: under 32 idle
	// passes, spin tight with no yield at all; under 256, yield the
	// goroutine via runtime.Gosched instead of parking outright; beyond
	// that, actually park. found_work (ran == true) resets the counter,
	// so a worker under steady load never pays the parking cost.
	spins := 0

runLoop:
	for {
		ran := w.tryRunTask()
		if !ran {
			ran = w.tryStealTask()
		}

		if !w.checkRunState() {
			break
		}

		if ran {
			spins = 0
			continue
		}

		switch {
		case spins < 32:
			spins++
		case spins < 256:
			spins++
			runtime.Gosched()
		default:
			if !w.sleep() {
				break runLoop
			}
			spins = 0
		}
	}

	w.finalize()
}

// drainInbound moves every task currently queued for this worker from its
// MPSC inbound queue onto its local deque (original §4.2's drain_inbound,
// called "Empty / Inconsistent / Data" per original_source/worker.rs).
// Inconsistent means a concurrent push is mid-flight; the worker simply
// yields and retries rather than treating it as empty.
func (w *Worker) drainInbound() {
	e := w.entry()
	moved := false
	for {
		t, outcome := e.inbound.poll()
		switch outcome {
		case inboundEmpty:
			if moved {
				// The drain may have moved more work onto this worker's
				// deque than it can get to before parking; make sure
				// some other worker is woken or nudged to help with it
				// (original §4.4).
				w.pool.signalWork()
			}
			return
		case inboundInconsistent:
			runtime.Gosched()
		case inboundData:
			e.deque.push(t)
			moved = true
		}
	}
}

// checkRunState resets a Notified/Signaled lifecycle back to Running
// (original §4.2), drains inbound work, and decides whether the worker
// should keep running. It returns false (stop) only once the pool has
// terminated and this worker has no local work left to finish, per
// original §4.6: a terminated pool still lets every worker drain and
// run whatever was already queued for it before shutting down.
func (w *Worker) checkRunState() bool {
	e := w.entry()
	e.wakeToRunning()
	w.drainInbound()

	if !w.pool.state.load().terminated() {
		return true
	}

	if w.pool.discard.Load() {
		// ShutdownNow: drop whatever is left in our own deque instead of
		// running it. Only this worker's own goroutine ever pops its
		// deque, so this remains single-owner safe.
		for {
			if _, ok := e.deque.pop(); !ok {
				break
			}
		}
	} else if e.deque.len() > 0 {
		return true
	}

	for {
		old := e.state.load()
		if old.lifecycle() == workerShutdown {
			return false
		}
		if e.state.compareAndSwap(old, old.withLifecycle(workerShutdown)) {
			return false
		}
	}
}

// tryRunTask pops one task from this worker's own deque and runs it.
func (w *Worker) tryRunTask() bool {
	e := w.entry()
	t, ok := e.deque.pop()
	if !ok {
		return false
	}
	w.runTask(t, e.idx)
	return true
}

// tryStealTask scans the other workers once, starting at a random index
// and proceeding round-robin, stealing and running the first task found (original §4.4's try_steal_task). A Retry
// outcome means contention, not absence, so the same victim is retried
// rather than being skipped.
func (w *Worker) tryStealTask() bool {
	e := w.entry()
	n := len(w.pool.workers)
	if n <= 1 {
		return false
	}

	start := e.rng.Intn(n)
	for i := 0; i < n; i++ {
		victimIdx := (start + i) % n
		if victimIdx == e.idx {
			continue
		}
		victim := w.pool.workers[victimIdx]

		for {
			t, outcome := victim.deque.steal()
			switch outcome {
			case stealEmpty:
				// Nothing here; move on to the next victim.
			case stealRetry:
				continue
			case stealData:
				e.tasksStolen.Add(1)
				w.runTask(t, victimIdx)
				return true
			}
			break
		}
	}
	return false
}

// runTask runs one task to a single step, per original §4.3's run_task /
// task result handling: Idle leaves the task parked with its Notifier
// retained elsewhere, Reschedule re-queues it on the task's home worker,
// Complete decrements the pool's outstanding-future count.
func (w *Worker) runTask(t Task, homeIdx int) {
	e := w.entry()

	rc := RunContext{
		Notifier: &taskNotifier{pool: w.pool, task: t, idx: homeIdx},
		Spawner:  w.pool.spawnerFor(e.idx),
	}

	result := t.Run(rc)
	e.tasksRun.Add(1)

	switch result {
	case Idle:
		// Task arranged its own wakeup; nothing further to do here.
	case Reschedule:
		if homeIdx == e.idx {
			// Still the owner: push directly onto our own deque, the
			// fast path every other push to this deque also uses.
			e.deque.push(t)
		} else {
			// This task was stolen; only its home worker may push onto
			// its deque, so route back through the MPSC inbound queue
			// instead, exactly like any other cross-worker submission.
			w.pool.workers[homeIdx].inbound.push(t)
			w.pool.signalWork()
		}
	case Complete:
		w.pool.completeTask()
	default:
		panic("sched: task returned unknown RunResult")
	}
}

// sleep implements original §4.5's two-phase park. Phase 1 (before ever
// touching the sleeper stack) consumes a Notified/Signaled lifecycle
// that already landed since the last checkRunState call, the same
// wake-to-Running transition checkRunState performs at the top of the
// loop; only a worker still plainly Running proceeds to the optimistic,
// mutex-free push onto the sleeper stack, followed by a mutex-guarded
// transition to Sleeping and a wait on the park gate. Returns false if
// the worker should shut down instead of continuing to run.
func (w *Worker) sleep() bool {
	e := w.entry()

	for {
		old := e.state.load()
		lc := old.lifecycle()
		if lc != workerNotified && lc != workerSignaled {
			break
		}
		next := old.withLifecycle(workerRunning)
		if e.state.compareAndSwap(old, next) {
			if lc == workerSignaled {
				w.pool.signalWork()
			}
			// A wake already arrived; don't push this entry onto the
			// sleeper stack at all, and go straight back to polling for
			// work instead of parking.
			return true
		}
	}

	if !w.pool.pushSleeper(e.idx) {
		return false
	}

	e.park.lock()

	// Between the optimistic push above and taking the mutex, a signaler
	// may already have notified/signaled us; only transition to Sleeping
	// if we are still plainly Running. If not, leave this entry linked on
	// the sleeper stack (a later pop will clear its pushed bit) and bail
	// out to poll again rather than parking.
	old := e.state.load()
	if old.lifecycle() != workerRunning {
		e.park.unlock()
		return true
	}
	if !e.state.compareAndSwap(old, old.withLifecycle(workerSleeping)) {
		e.park.unlock()
		return true
	}

	if w.pool.cfg.KeepAlive > 0 {
		deadline := time.Now().Add(w.pool.cfg.KeepAlive)
		timedOut := e.park.waitUntil(deadline)
		woke := e.state.load()
		e.park.unlock()

		if timedOut && woke.lifecycle() == workerSleeping {
			// No one claimed this worker before the keep-alive elapsed;
			// original worker.rs's drop_thread path: let it shut down
			// rather than loop back to sleep again.
			for {
				cur := e.state.load()
				if cur.lifecycle() != workerSleeping {
					return true
				}
				if e.state.compareAndSwap(cur, cur.withLifecycle(workerShutdown)) {
					return false
				}
			}
		}
		return true
	}

	for {
		woke := e.state.load()
		if woke.lifecycle() != workerSleeping {
			break
		}
		e.park.wait()
	}
	e.park.unlock()
	return true
}

// finalize runs once as a worker's loop exits: drain whatever is left in
// its queues back to completion bookkeeping is not attempted (a
// terminated pool has already abandoned those tasks per Shutdown vs.
// ShutdownNow semantics), and report termination to the pool so Wait can
// unblock, mirroring original §4.7's Drop impl.
func (w *Worker) finalize() {
	w.pool.workerTerminated()
}
