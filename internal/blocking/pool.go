// Package blocking provides a bounded-concurrency pool for work that
// must block an OS thread (file I/O, CGO calls, anything that cannot be
// expressed as a non-blocking poll). A sched.Task offloads such work
// here instead of blocking a work-stealing worker goroutine directly.
//
// Grounded in HackStrix-steel-infra-assessment/orchestrator/pool.go's
// channel-semaphore Acquire/Release pattern (there, a fixed number of
// browser-process "slots"; here, a fixed number of blocking-goroutine
// slots), adapted from "browser process slots" to "blocking goroutine
// slots" per SPEC_FULL §6.5.
package blocking

import (
	"context"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrPoolClosed is returned by Acquire/Run once Close has been called.
var ErrPoolClosed = errors.New("blocking: pool is closed")

// Pool bounds the number of concurrently running blocking goroutines.
type Pool struct {
	slots  chan struct{}
	closed atomic.Bool
	active atomic.Int32
}

// New returns a Pool that admits at most max concurrent blocking calls.
func New(max int) *Pool {
	if max <= 0 {
		max = 1
	}
	p := &Pool{slots: make(chan struct{}, max)}
	for i := 0; i < max; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Acquire blocks until a slot is free or ctx is done. It returns
// ErrPoolClosed if the pool is already closed when called, or if it has
// been closed by the time a slot frees up; Close itself does not wake a
// waiting caller.
func (p *Pool) Acquire(ctx context.Context) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	select {
	case <-p.slots:
		if p.closed.Load() {
			p.slots <- struct{}{}
			return ErrPoolClosed
		}
		p.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a previously acquired slot.
func (p *Pool) Release() {
	p.active.Add(-1)
	p.slots <- struct{}{}
}

// Active reports the number of blocking calls currently running.
func (p *Pool) Active() int32 { return p.active.Load() }

// Close marks the pool closed: new Acquire calls fail immediately with
// ErrPoolClosed, and Acquire callers already waiting on a slot return
// ErrPoolClosed once a slot frees up. Calls already running are not
// interrupted.
func (p *Pool) Close() {
	p.closed.Store(true)
}

// Job is the result handle returned by Run: a single-value channel the
// caller polls instead of blocking on, matching the Idle/Reschedule
// discipline a sched.Task must observe.
type Job struct {
	done chan error
	err  error
	got  atomic.Bool
}

// Ready reports whether fn has finished, caching its error on first
// observation so repeated polls after completion are allocation-free.
func (j *Job) Ready() bool {
	if j.got.Load() {
		return true
	}
	select {
	case err := <-j.done:
		j.err = err
		j.got.Store(true)
		return true
	default:
		return false
	}
}

// Err returns fn's result. Only valid once Ready reports true.
func (j *Job) Err() error { return j.err }

// Run acquires a slot, runs fn on a dedicated goroutine, and returns a
// Job a sched.Task can poll from inside Task.Run: while !Ready(), the
// task returns sched.Reschedule (or sched.Idle plus a Notifier.Notify
// call scheduled for when the job completes) instead of blocking the
// worker.
func (p *Pool) Run(ctx context.Context, fn func() error) (*Job, error) {
	if err := p.Acquire(ctx); err != nil {
		return nil, err
	}

	j := &Job{done: make(chan error, 1)}
	go func() {
		defer p.Release()
		j.done <- fn()
	}()
	return j, nil
}
