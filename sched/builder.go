package sched

import "time"

// Builder provides a fluent constructor for Config, grounded in the
// teacher's ServerConfig-plus-defaults pattern (main.go) generalized
// into a chainable form, per SPEC_FULL §6.4.
type Builder struct {
	cfg Config
}

// NewBuilder starts a Builder with zero-value defaults.
func NewBuilder() *Builder {
	return &Builder{}
}

// Workers sets the worker count.
func (b *Builder) Workers(n int) *Builder {
	b.cfg.WorkerCount = n
	return b
}

// NamePrefix sets the worker name prefix.
func (b *Builder) NamePrefix(prefix string) *Builder {
	b.cfg.NamePrefix = prefix
	return b
}

// StackSizeHint sets the informational stack-size hint.
func (b *Builder) StackSizeHint(bytes int) *Builder {
	b.cfg.StackSizeHint = bytes
	return b
}

// KeepAlive sets the idle-parked-worker timeout.
func (b *Builder) KeepAlive(d time.Duration) *Builder {
	b.cfg.KeepAlive = d
	return b
}

// AroundWorker sets the optional per-worker wrapper callback.
func (b *Builder) AroundWorker(fn func(w *Worker)) *Builder {
	b.cfg.AroundWorker = fn
	return b
}

// SubmitRateLimit enables submission-rate limiting.
func (b *Builder) SubmitRateLimit(tokens int, refill time.Duration, block bool) *Builder {
	b.cfg.SubmitRateLimit = &RateLimitConfig{Tokens: tokens, Refill: refill, Block: block}
	return b
}

// Logger sets the logger used for bracketed component log lines.
func (b *Builder) Logger(l Logger) *Builder {
	b.cfg.Logger = l
	return b
}

// Config returns the accumulated configuration without starting a pool.
func (b *Builder) Config() Config {
	return b.cfg
}

// Build validates the accumulated configuration and starts a Pool.
func (b *Builder) Build() (*Pool, error) {
	return Start(b.cfg)
}
