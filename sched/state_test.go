package sched

import "testing"

func TestWorkerStatePackRoundTrip(t *testing.T) {
	for _, lifecycle := range []uint64{workerShutdown, workerRunning, workerSleeping, workerNotified, workerSignaled} {
		for _, pushed := range []bool{false, true} {
			w := packWorkerState(lifecycle, pushed)
			if w.lifecycle() != lifecycle {
				t.Fatalf("lifecycle() = %d, want %d", w.lifecycle(), lifecycle)
			}
			if w.pushed() != pushed {
				t.Fatalf("pushed() = %v, want %v", w.pushed(), pushed)
			}
		}
	}
}

func TestWorkerStateWithLifecyclePreservesPushed(t *testing.T) {
	w := packWorkerState(workerRunning, true)
	w = w.withLifecycle(workerSleeping)
	if w.lifecycle() != workerSleeping {
		t.Fatalf("lifecycle() = %d, want workerSleeping", w.lifecycle())
	}
	if !w.pushed() {
		t.Fatal("pushed bit lost across withLifecycle")
	}
}

func TestPoolStatePackRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 42, 1 << 30} {
		for _, terminated := range []bool{false, true} {
			p := packPoolState(n, terminated)
			if p.numFutures() != n {
				t.Fatalf("numFutures() = %d, want %d", p.numFutures(), n)
			}
			if p.terminated() != terminated {
				t.Fatalf("terminated() = %v, want %v", p.terminated(), terminated)
			}
		}
	}
}

func TestPoolStateWithNumFuturesPreservesTerminated(t *testing.T) {
	p := packPoolState(3, true)
	p = p.withNumFutures(2)
	if p.numFutures() != 2 {
		t.Fatalf("numFutures() = %d, want 2", p.numFutures())
	}
	if !p.terminated() {
		t.Fatal("terminated bit lost across withNumFutures")
	}
}

func TestSleepHeadPackRoundTrip(t *testing.T) {
	for _, idx := range []uint32{0, 1, noSleeper, 12345} {
		for _, gen := range []uint32{0, 1, 0xFFFFFFFF} {
			s := packSleepHead(idx, gen)
			if s.index() != idx {
				t.Fatalf("index() = %d, want %d", s.index(), idx)
			}
			if s.generation() != gen {
				t.Fatalf("generation() = %d, want %d", s.generation(), gen)
			}
		}
	}
}
