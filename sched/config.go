package sched

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Config mirrors the original spec's enumerated configuration options
// (§6) plus the one addition from SPEC_FULL §6.8. It plays the same
// role as the teacher's ServerConfig in main.go: a plain, JSON-friendly
// struct constructed once and never mutated after Start.
type Config struct {
	// WorkerCount is the number of workers to run. Required, must be >= 1.
	WorkerCount int

	// NamePrefix is an optional worker name prefix. validate title-cases
	// it and the pool keeps it in its Config, but nothing in the pool
	// reads it: workers are not labeled with it in logs, snapshots or
	// goroutine names.
	NamePrefix string

	// StackSizeHint is informational: Go goroutines grow their stacks
	// dynamically, so this does not pre-allocate OS thread stacks the
	// way the original spec's stack_size option does. It is preserved
	// as a config field (per SPEC_FULL §3) and used only to size each
	// worker's initial deque capacity, a legitimate analogous use.
	StackSizeHint int

	// KeepAlive, if set, is the duration an idle parked worker waits
	// before transitioning to Shutdown (original §6).
	KeepAlive time.Duration

	// AroundWorker, if set, is invoked once per worker instead of the
	// worker running its loop directly; it must call Worker.Run itself
	// (original §6).
	AroundWorker func(w *Worker)

	// SubmitRateLimit optionally throttles Submit with a token-bucket
	// limiter (SPEC_FULL §6.8), the home found for the teacher's
	// internal/ratelimiter package.
	SubmitRateLimit *RateLimitConfig

	// Logger receives bracketed-component log lines in the teacher's
	// "[pool] message" convention (SPEC_FULL §10.1). Nil uses the
	// package default.
	Logger Logger
}

// RateLimitConfig configures the optional submission rate limiter.
type RateLimitConfig struct {
	// Tokens is the bucket capacity (maximum burst of submissions).
	Tokens int
	// Refill is how often one token is added back to the bucket.
	Refill time.Duration
	// Block, if true, makes Submit wait for a token instead of
	// returning ErrRateLimited immediately when the bucket is empty.
	Block bool
}

// Logger is the minimal logging seam Config.Logger fills; see
// internal/logging for the concrete implementation used by default.
type Logger interface {
	Printf(format string, args ...any)
}

var titleCaser = cases.Title(language.Und)

// validate checks and normalizes a Config, grounded in the teacher's
// inline-validation idiom (NewPool/NewWorkerPool in HackStrix and
// Jhoorodre return wrapped errors for genuine misconfiguration). Unlike
// those constructors, which default an invalid count, validate rejects
// a non-positive WorkerCount with ErrInvalidConfig.
func (c *Config) validate() error {
	if c.WorkerCount <= 0 {
		return wrapf(ErrInvalidConfig, "worker count must be >= 1, got %d", c.WorkerCount)
	}
	if c.KeepAlive < 0 {
		return wrapf(ErrInvalidConfig, "keep_alive must be >= 0, got %s", c.KeepAlive)
	}
	if c.SubmitRateLimit != nil {
		if c.SubmitRateLimit.Tokens <= 0 {
			return wrapf(ErrInvalidConfig, "submit_rate_limit.tokens must be >= 1, got %d", c.SubmitRateLimit.Tokens)
		}
		if c.SubmitRateLimit.Refill <= 0 {
			return wrapf(ErrInvalidConfig, "submit_rate_limit.refill must be > 0, got %s", c.SubmitRateLimit.Refill)
		}
	}
	if c.NamePrefix != "" {
		// Normalize to title case for consistent worker/thread naming in
		// logs — the grounded home for golang.org/x/text (SPEC_FULL §10.3).
		c.NamePrefix = titleCaser.String(c.NamePrefix)
	}
	return nil
}
