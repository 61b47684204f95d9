// Package stealpool is the public entry point to the work-stealing task
// executor: a façade over sched.Pool grounded in the teacher's
// HighPerformanceServer (main.go) — a config-holding wrapper with a
// context/cancel pair and a WaitGroup-backed graceful shutdown —
// adapted from a manga-upload HTTP server into a scheduler handle
// (SPEC_FULL §6.3).
package stealpool

import (
	"context"
	"sync"
	"time"

	"github.com/jhoorodre/stealpool/internal/diagnostics"
	"github.com/jhoorodre/stealpool/sched"
	"github.com/jhoorodre/stealpool/sched/future"
)

// Handle is the user-facing wrapper returned by New. It owns the
// underlying *sched.Pool and, optionally, a diagnostics streamer.
type Handle struct {
	pool *sched.Pool

	diag   *diagnostics.Streamer
	diagMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options configures New, mirroring ServerConfig's JSON-tagged plain
// struct shape.
type Options struct {
	Workers    int           `json:"workers"`
	NamePrefix string        `json:"namePrefix"`
	KeepAlive  time.Duration `json:"keepAlive"`
	EnableDiag bool          `json:"enableDiagnostics"`
	DiagPeriod time.Duration `json:"diagnosticsPeriod"`
}

// New builds a Builder-backed Config from opts and starts a Handle.
func New(opts Options) (*Handle, error) {
	b := sched.NewBuilder().Workers(opts.Workers).NamePrefix(opts.NamePrefix)
	if opts.KeepAlive > 0 {
		b = b.KeepAlive(opts.KeepAlive)
	}

	pool, err := b.Build()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{pool: pool, ctx: ctx, cancel: cancel}

	if opts.EnableDiag {
		period := opts.DiagPeriod
		if period <= 0 {
			period = 500 * time.Millisecond
		}
		h.diag = diagnostics.New(period)
		h.wg.Add(1)
		go h.publishDiagnostics(period)
	}

	return h, nil
}

func (h *Handle) publishDiagnostics(period time.Duration) {
	defer h.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.diag.Publish(toDiagSnapshot(h.pool.Stats()))
		case <-h.ctx.Done():
			return
		}
	}
}

func toDiagSnapshot(s sched.Snapshot) diagnostics.Snapshot {
	out := diagnostics.Snapshot{
		NumFutures: s.NumFutures,
		Terminated: s.Terminated,
		Workers:    make([]diagnostics.WorkerSnapshot, len(s.Workers)),
	}
	for i, w := range s.Workers {
		out.Workers[i] = diagnostics.WorkerSnapshot{
			Index:       w.Index,
			Lifecycle:   w.Lifecycle,
			QueueDepth:  w.QueueDepth,
			TasksRun:    w.TasksRun,
			TasksStolen: w.TasksStolen,
		}
	}
	return out
}

// Spawn submits a task to the pool.
func (h *Handle) Spawn(task sched.Task) error {
	return h.pool.Submit(task)
}

// SpawnFunc adapts a plain func(context.Context) error into a task via
// sched/future and submits it: fn runs on its own goroutine rather than
// blocking a worker, and the task reports Idle until fn returns.
func (h *Handle) SpawnFunc(fn func(context.Context) error) (*future.Future[struct{}], error) {
	f := future.New(h.ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if err := h.pool.Submit(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Diagnostics returns the diagnostics HTTP handler, or nil if
// diagnostics were not enabled via Options.EnableDiag.
func (h *Handle) Diagnostics() *diagnostics.Streamer {
	return h.diag
}

// Stats returns the pool's current Snapshot.
func (h *Handle) Stats() sched.Snapshot {
	return h.pool.Stats()
}

// Close gracefully shuts the pool down: no further tasks are accepted,
// outstanding tasks run to completion, and Close blocks until every
// worker has exited or ctx is done, whichever comes first.
func (h *Handle) Close(ctx context.Context) error {
	h.pool.Shutdown()
	h.cancel()

	waited := make(chan struct{})
	go func() {
		h.pool.Wait()
		h.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		if h.diag != nil {
			h.diagMu.Lock()
			h.diag.Close()
			h.diagMu.Unlock()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
