package future

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoorodre/stealpool/sched"
)

type recordingNotifier struct{ notified chan struct{} }

func (n *recordingNotifier) Notify() { close(n.notified) }

func TestFutureCompletesAfterFnReturns(t *testing.T) {
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	})

	notifier := &recordingNotifier{notified: make(chan struct{})}
	rc := sched.RunContext{Notifier: notifier}

	if got := f.Run(rc); got != sched.Idle {
		t.Fatalf("first Run() = %v, want Idle", got)
	}

	select {
	case <-notifier.notified:
	case <-time.After(time.Second):
		t.Fatal("notifier never fired")
	}

	if got := f.Run(rc); got != sched.Complete {
		t.Fatalf("second Run() = %v, want Complete", got)
	}

	v, err := f.Result()
	if err != nil || v != 42 {
		t.Fatalf("Result() = %d, %v, want 42, nil", v, err)
	}
}

func TestFuturePropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	f := New(context.Background(), func(ctx context.Context) (int, error) {
		return 0, wantErr
	})

	rc := sched.RunContext{Notifier: &recordingNotifier{notified: make(chan struct{})}}
	f.Run(rc)

	<-f.Done()
	if got := f.Run(rc); got != sched.Complete {
		t.Fatalf("Run() = %v, want Complete", got)
	}
	if _, err := f.Result(); err != wantErr {
		t.Fatalf("Result() err = %v, want %v", err, wantErr)
	}
}
