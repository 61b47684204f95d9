// Package ioshim provides a minimal timer-driven Notifier caller,
// standing in for "a separate timer/IO driver" per the original spec's
// explicit note that such a driver is out of scope for the core itself.
// It exists so the Notifier external interface has at least one
// concrete, testable, non-core caller instead of remaining an
// unimplemented stub (SPEC_FULL §12.3).
package ioshim

import (
	"sync"
	"time"
)

// Notifier is the minimal capability DeadlineNotifier needs; satisfied
// by sched.Notifier without importing sched from this package.
type Notifier interface {
	Notify()
}

// DeadlineNotifier calls a Notifier's Notify method once, after a fixed
// duration, unless it is stopped first.
type DeadlineNotifier struct {
	timer *time.Timer
	once  sync.Once
}

// After arranges for n.Notify() to be called once d has elapsed.
func After(d time.Duration, n Notifier) *DeadlineNotifier {
	dn := &DeadlineNotifier{}
	dn.timer = time.AfterFunc(d, func() {
		dn.once.Do(n.Notify)
	})
	return dn
}

// Stop cancels the pending notification. Returns false if it already
// fired or was already stopped.
func (dn *DeadlineNotifier) Stop() bool {
	return dn.timer.Stop()
}
