package sched

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/jhoorodre/stealpool/internal/logging"
)

// Pool is the shared executor state described in SPEC_FULL §3 / original
// §3: a fixed set of workers, the atomic pool word, and the sleeper
// stack. It plays the same structural role as the teacher's WorkerPool
// in internal/workstealing/work_stealer.go (workers slice + shared
// queues + wait group + shutdown context) but every synchronization
// point that the teacher implements with a mutex-guarded slice or a
// sync.Cond-guarded queue is replaced here with the lock-free
// primitives the spec requires.
type Pool struct {
	workers []*workerEntry
	state   atomicPoolState
	sleep   atomicSleepHead

	cfg Config

	terminatedWorkers atomic.Int32
	allTerminated      chan struct{}
	terminateOnce      sync.Once
	discard            atomic.Bool

	rrCounter atomic.Uint64

	limiter *submitLimiter

	closeOnce sync.Once
}

// Start constructs a Pool, spawns WorkerCount goroutines, and returns
// once every worker has been launched (original §6, "start(config) →
// Pool ... spawn N workers").
func Start(cfg Config) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("pool")
	}

	p := &Pool{
		cfg:           cfg,
		allTerminated: make(chan struct{}),
	}
	p.state.init(packPoolState(0, false))

	n := cfg.WorkerCount
	if n > int(noSleeper) {
		return nil, wrapf(ErrInvalidConfig, "worker count %d exceeds supported maximum", n)
	}
	p.sleep.init(packSleepHead(noSleeper, 0))

	p.workers = make([]*workerEntry, n)
	for i := 0; i < n; i++ {
		e := &workerEntry{
			idx:     i,
			pool:    p,
			deque:   newDequeue(cfg.StackSizeHint / 64),
			inbound: newInboundQueue(),
			park:    newParkGate(),
			rng:     rand.New(rand.NewSource(int64(i)*2654435761 + 1)),
		}
		e.state.init(packWorkerState(workerRunning, false))
		p.workers[i] = e
	}

	if cfg.SubmitRateLimit != nil {
		p.limiter = newSubmitLimiter(*cfg.SubmitRateLimit)
	}

	var startWG sync.WaitGroup
	startWG.Add(n)
	for i := 0; i < n; i++ {
		w := &Worker{pool: p, idx: i}
		go func() {
			startWG.Done()
			if cfg.AroundWorker != nil {
				cfg.AroundWorker(w)
			} else {
				w.Run()
			}
		}()
	}
	startWG.Wait()
	p.logf("started with %d workers", n)

	return p, nil
}

func (p *Pool) logf(format string, args ...any) {
	if p.cfg.Logger != nil {
		p.cfg.Logger.Printf(format, args...)
	}
}

// Submit implements Spawner: it is the plain, no-affinity entry point
// used by external callers (original §6, "To submitters"). Tasks
// submitted from inside a running Task instead use the worker-affine
// spawner handed to them via RunContext, per original §6's note that
// submitters may prefer "the current worker" when one exists.
func (p *Pool) Submit(task Task) error {
	idx := int(p.rrCounter.Add(1) % uint64(len(p.workers)))
	return p.submitTo(task, idx, true)
}

func (p *Pool) submitTo(task Task, idx int, countsAsNewFuture bool) error {
	// The rate limiter gates admission of genuinely new work only; a
	// Notifier-driven resubmission of an already-admitted task must
	// never be dropped for being rate limited, or the "every task
	// eventually runs" invariant breaks under load.
	if countsAsNewFuture {
		if p.limiter != nil {
			if err := p.limiter.acquire(); err != nil {
				return err
			}
		}

		for {
			old := p.state.load()
			if old.terminated() {
				return ErrPoolClosed
			}
			next := old.withNumFutures(old.numFutures() + 1)
			if p.state.compareAndSwap(old, next) {
				break
			}
		}
	} else if p.state.load().terminated() {
		// Resubmission (Notifier path) on a terminated pool: drop
		// silently, matching original §7's "submit on terminated pool"
		// policy extended to the notify path.
		return ErrPoolClosed
	}

	p.workers[idx].inbound.push(task)
	p.signalWork()
	return nil
}

// spawnerFor returns the Spawner handed to tasks running on worker idx:
// it prefers that worker's own inbound queue, per original §6.
func (p *Pool) spawnerFor(idx int) Spawner {
	return poolSpawner{pool: p, preferred: idx}
}

type poolSpawner struct {
	pool      *Pool
	preferred int
}

func (s poolSpawner) Submit(task Task) error {
	return s.pool.submitTo(task, s.preferred, true)
}

// taskNotifier is the Notifier handed to a task for the duration of one
// Run call (original §6, "To tasks"). It retains the task and its home
// worker index so a later Notify() call can resubmit it exactly the way
// Submit would, minus the future-count increment (the future was
// already counted when the task was first submitted).
//
// The original Rust design wraps a Weak<Inner> here specifically to
// avoid a reference cycle in a refcounted runtime (SPEC_FULL §9): a Task
// holding a strong Notifier holding a strong Pool, while the Pool's
// worker holds the Task, would never be freed under Rc/Arc counting.
// Go's garbage collector traces cycles, so that concern does not apply;
// taskNotifier holds a plain strong *Pool. This resolves the Weak-
// notifier open question for the Go port: the GC makes "promote weak to
// strong" unnecessary. See DESIGN.md.
type taskNotifier struct {
	pool *Pool
	task Task
	idx  int
}

func (n *taskNotifier) Notify() {
	_ = n.pool.submitTo(n.task, n.idx, false)
}

// signalWork implements original §4.3: ensure some worker not already
// guaranteed to observe new work is woken or nudged.
func (p *Pool) signalWork() {
outer:
	for {
		idx, ok := p.popSleeper()
		if !ok {
			return
		}

		e := p.workers[idx]
		for {
			old := e.state.load()
			var next workerState
			switch old.lifecycle() {
			case workerSleeping:
				next = old.withLifecycle(workerNotified)
			case workerRunning:
				next = old.withLifecycle(workerSignaled)
			case workerNotified:
				return // already notified, nothing to do
			case workerSignaled, workerShutdown:
				// Popped a worker that's already signaled or shutting
				// down; retry the pop for another candidate.
				continue outer
			default:
				panic("sched: unexpected worker lifecycle in signalWork")
			}

			if e.state.compareAndSwap(old, next) {
				if old.lifecycle() == workerSleeping {
					e.park.notify()
				}
				return
			}
		}
	}
}

// pushSleeper links worker idx onto the Treiber sleeper stack and marks
// its pushed bit, per original §4.5. Returns false only if the pool has
// already terminated, in which case the worker should shut down instead
// of parking.
func (p *Pool) pushSleeper(idx int) bool {
	e := p.workers[idx]

	if p.state.load().terminated() {
		return false
	}

	for {
		old := e.state.load()
		if e.state.compareAndSwap(old, old.withPushed(true)) {
			break
		}
	}

	for {
		old := p.sleep.load()
		e.nextSleeper = old.index()
		next := packSleepHead(uint32(idx), old.generation()+1)
		if p.sleep.compareAndSwap(old, next) {
			return true
		}
	}
}

// popSleeper unlinks the top of the sleeper stack, clears its pushed
// bit, and returns its index.
func (p *Pool) popSleeper() (int, bool) {
	for {
		old := p.sleep.load()
		if old.index() == noSleeper {
			return 0, false
		}

		e := p.workers[old.index()]
		next := packSleepHead(e.nextSleeper, old.generation()+1)
		if p.sleep.compareAndSwap(old, next) {
			idx := int(old.index())
			for {
				os := e.state.load()
				if e.state.compareAndSwap(os, os.withPushed(false)) {
					break
				}
			}
			return idx, true
		}
	}
}

// terminateSleepers wakes every currently-sleeping worker so each can
// observe the terminated pool state on its next loop iteration, per
// original §4.6.
func (p *Pool) terminateSleepers() {
	for {
		idx, ok := p.popSleeper()
		if !ok {
			return
		}
		e := p.workers[idx]
		for {
			old := e.state.load()
			next := old.withLifecycle(workerNotified)
			if e.state.compareAndSwap(old, next) {
				e.park.notify()
				break
			}
		}
	}
}

// completeTask implements original §4.6's task-completion bookkeeping:
// decrement numFutures, and if the pool was already terminated and this
// was the last outstanding future, wake every sleeper so the shutdown
// is observed everywhere.
func (p *Pool) completeTask() {
	for {
		old := p.state.load()
		next := old.withNumFutures(old.numFutures() - 1)
		if p.state.compareAndSwap(old, next) {
			if old.numFutures() == 1 && next.terminated() {
				p.terminateSleepers()
			}
			return
		}
	}
}

// Shutdown implements original §6: set the terminated bit; if there are
// no outstanding futures, wake every sleeper immediately, otherwise
// termination completes as the last task finishes (completeTask above).
func (p *Pool) Shutdown() {
	for {
		old := p.state.load()
		if old.terminated() {
			return
		}
		next := old.withTerminated(true)
		if p.state.compareAndSwap(old, next) {
			p.logf("shutdown requested, %d futures outstanding", next.numFutures())
			if next.numFutures() == 0 {
				p.terminateSleepers()
			}
			return
		}
	}
}

// ShutdownNow implements original §6: as Shutdown, but each worker
// discards its own remaining queued tasks instead of running them
// (original §9's "drain-and-discard on drop", kept unchanged). Queues
// are single-owner (deque) / single-consumer (inbound), so ShutdownNow
// itself never touches them directly; it only flips the discard flag
// and lets each worker's own goroutine drain-and-drop in checkRunState.
func (p *Pool) ShutdownNow() {
	p.logf("shutdown_now requested, discarding queued work")
	p.discard.Store(true)

	for {
		old := p.state.load()
		next := old.withTerminated(true)
		if old.terminated() || p.state.compareAndSwap(old, next) {
			break
		}
	}

	p.terminateSleepers()
}

// workerTerminated is called by a worker goroutine as it exits, per
// original §4.7. The last worker to terminate closes allTerminated so
// Wait can unblock callers.
func (p *Pool) workerTerminated() {
	if p.terminatedWorkers.Add(1) == int32(len(p.workers)) {
		p.terminateOnce.Do(func() { close(p.allTerminated) })
	}
}

// Wait blocks until every worker goroutine has exited (all terminated),
// e.g. after Shutdown/ShutdownNow. It is the Go analogue of the
// teacher's wg.Wait() in WorkerPool.Stop().
func (p *Pool) Wait() {
	<-p.allTerminated
	if p.limiter != nil {
		p.closeOnce.Do(p.limiter.close)
	}
}

// Snapshot is a point-in-time view of pool and per-worker state, used by
// Stats() and by internal/diagnostics.Streamer (SPEC_FULL §6.7, §12.4).
type Snapshot struct {
	NumFutures  uint64
	Terminated  bool
	NumWorkers  int
	Workers     []WorkerSnapshot
}

// WorkerSnapshot describes one worker for diagnostics/metrics purposes.
type WorkerSnapshot struct {
	Index       int
	Lifecycle   string
	QueueDepth  int64
	TasksRun    uint64
	TasksStolen uint64
}

func lifecycleName(l uint64) string {
	switch l {
	case workerShutdown:
		return "Shutdown"
	case workerRunning:
		return "Running"
	case workerSleeping:
		return "Sleeping"
	case workerNotified:
		return "Notified"
	case workerSignaled:
		return "Signaled"
	default:
		return "Unknown"
	}
}

// Stats returns a Snapshot of the pool's current state (SPEC_FULL §12.4,
// descended from the teacher's WorkerPool.GetStats /
// AdvancedMetrics.GetStats but trimmed to scalar, lock-free counters).
func (p *Pool) Stats() Snapshot {
	s := p.state.load()
	snap := Snapshot{
		NumFutures: s.numFutures(),
		Terminated: s.terminated(),
		NumWorkers: len(p.workers),
		Workers:    make([]WorkerSnapshot, len(p.workers)),
	}
	for i, e := range p.workers {
		snap.Workers[i] = WorkerSnapshot{
			Index:       i,
			Lifecycle:   lifecycleName(e.state.load().lifecycle()),
			QueueDepth:  e.deque.len(),
			TasksRun:    e.tasksRun.Load(),
			TasksStolen: e.tasksStolen.Load(),
		}
	}
	return snap
}
