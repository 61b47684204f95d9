package blocking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPoolRunCompletes(t *testing.T) {
	p := New(2)
	job, err := p.Run(context.Background(), func() error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !job.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("job never became ready")
		}
		time.Sleep(time.Millisecond)
	}
	if job.Err() != nil {
		t.Fatalf("job.Err() = %v, want nil", job.Err())
	}
}

func TestPoolRunPropagatesError(t *testing.T) {
	p := New(1)
	wantErr := errors.New("boom")
	job, err := p.Run(context.Background(), func() error { return wantErr })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !job.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("job never became ready")
		}
		time.Sleep(time.Millisecond)
	}
	if job.Err() != wantErr {
		t.Fatalf("job.Err() = %v, want %v", job.Err(), wantErr)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := New(1)
	release := make(chan struct{})

	_, err := p.Run(context.Background(), func() error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Fatal("Acquire succeeded while the single slot was held, want timeout")
		p.Release()
	}

	close(release)
}

func TestPoolCloseRejectsNewAcquire(t *testing.T) {
	p := New(1)
	p.Close()

	if err := p.Acquire(context.Background()); err != ErrPoolClosed {
		t.Fatalf("Acquire after Close = %v, want ErrPoolClosed", err)
	}
}
