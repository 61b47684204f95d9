package stealpool

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitForHandle(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not satisfied within %s", timeout)
}

func TestNewStartsAndCloses(t *testing.T) {
	h, err := New(Options{Workers: 2, NamePrefix: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if h.Diagnostics() != nil {
		t.Fatal("Diagnostics() should be nil when EnableDiag is false")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHandleSpawnFuncRunsAndReports(t *testing.T) {
	h, err := New(Options{Workers: 2, NamePrefix: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.Close(ctx)
	}()

	f, err := h.SpawnFunc(func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("SpawnFunc: %v", err)
	}

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future never completed")
	}
	if _, err := f.Result(); err != nil {
		t.Fatalf("Result() err = %v, want nil", err)
	}
}

func TestHandleSpawnFuncPropagatesError(t *testing.T) {
	h, err := New(Options{Workers: 2, NamePrefix: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.Close(ctx)
	}()

	wantErr := errors.New("boom")
	f, err := h.SpawnFunc(func(ctx context.Context) error {
		return wantErr
	})
	if err != nil {
		t.Fatalf("SpawnFunc: %v", err)
	}

	<-f.Done()
	if _, err := f.Result(); err != wantErr {
		t.Fatalf("Result() err = %v, want %v", err, wantErr)
	}
}

func TestHandleStatsReflectSubmittedWork(t *testing.T) {
	h, err := New(Options{Workers: 2, NamePrefix: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.Close(ctx)
	}()

	if _, err := h.SpawnFunc(func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("SpawnFunc: %v", err)
	}

	waitForHandle(t, time.Second, func() bool {
		return h.Stats().NumFutures == 0
	})
}

func TestHandleDiagnosticsEnabled(t *testing.T) {
	h, err := New(Options{
		Workers:    1,
		NamePrefix: "test",
		EnableDiag: true,
		DiagPeriod: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		h.Close(ctx)
	}()

	if h.Diagnostics() == nil {
		t.Fatal("Diagnostics() should be non-nil when EnableDiag is true")
	}
}
