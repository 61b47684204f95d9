package sched

import "github.com/pkg/errors"

// Errors returned across the sched package boundary, wrapped with
// github.com/pkg/errors so a stack trace is captured at the point of
// failure — the grounded home for the teacher's pkg/errors dependency,
// per SPEC_FULL §7.
var (
	// ErrPoolClosed is returned by Submit once the pool has been told to
	// shut down; no task is pushed (original §7, "Submit on terminated
	// pool").
	ErrPoolClosed = errors.New("sched: pool is closed")

	// ErrInvalidConfig is returned by Builder.Build / Start when the
	// configuration fails validation.
	ErrInvalidConfig = errors.New("sched: invalid configuration")

	// ErrRateLimited is returned by Submit when a configured submission
	// rate limiter rejects the call outright (non-blocking mode).
	ErrRateLimited = errors.New("sched: submission rate limited")
)

// wrapf is a tiny helper matching the teacher's fmt.Errorf("...: %w", err)
// idiom (seen throughout pool.go / worker.go in HackStrix) but using
// pkg/errors so intermediate frames keep their stack.
func wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
