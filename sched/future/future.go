// Package future adapts a plain func(context.Context) (T, error) into a
// sched.Task, per SPEC_FULL §6.6: it polls a completion channel,
// reporting Idle while unresolved and Complete once the channel yields,
// using the task's Notifier to wake the pool the moment the underlying
// call finishes rather than having the worker block on it.
//
// Naming and polling-vs-blocking discipline follow the opaque tri-state
// contract the core itself defines (sched.RunResult); no code here is
// copied from any retrieved eventloop/promise package, only the
// vocabulary of "poll once, never block" is borrowed.
package future

import (
	"context"
	"sync"

	"github.com/jhoorodre/stealpool/sched"
)

// Future runs fn exactly once on its own goroutine and exposes its
// result through the sched.Task contract.
type Future[T any] struct {
	fn  func(ctx context.Context) (T, error)
	ctx context.Context

	once   sync.Once
	done   chan struct{}
	result T
	err    error
}

// New returns a Future that will run fn when first polled via Run.
func New[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	return &Future[T]{fn: fn, ctx: ctx, done: make(chan struct{})}
}

// Run implements sched.Task. The first call launches fn in the
// background and returns Idle immediately; later calls (driven by the
// Notifier fn's completion triggers) check whether the channel has
// closed and report Complete once it has.
func (f *Future[T]) Run(rc sched.RunContext) sched.RunResult {
	select {
	case <-f.done:
		return sched.Complete
	default:
	}

	f.once.Do(func() {
		notifier := rc.Notifier
		go func() {
			f.result, f.err = f.fn(f.ctx)
			close(f.done)
			if notifier != nil {
				notifier.Notify()
			}
		}()
	})

	return sched.Idle
}

// Done returns a channel closed once fn has returned.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result returns fn's result. Only meaningful after Done is closed.
func (f *Future[T]) Result() (T, error) { return f.result, f.err }
