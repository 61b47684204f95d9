// Command stealpool is a minimal demonstration binary for the scheduler:
// it starts a Handle, spawns a handful of self-rescheduling tasks,
// serves the diagnostics websocket, and shuts down gracefully on
// SIGINT/SIGTERM. Grounded in the teacher's main() (signal.Notify +
// select-on-signal-or-error graceful shutdown), trimmed down from an
// HTTP upload server to a scheduler demo.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jhoorodre/stealpool"
	"github.com/jhoorodre/stealpool/sched"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	h, err := stealpool.New(stealpool.Options{
		Workers:    4,
		NamePrefix: "demo",
		KeepAlive:  30 * time.Second,
		EnableDiag: true,
		DiagPeriod: 250 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("stealpool: failed to start: %v", err)
	}

	if diag := h.Diagnostics(); diag != nil {
		mux := http.NewServeMux()
		mux.Handle("/diagnostics", diag)
		server := &http.Server{Addr: ":8099", Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("diagnostics server error: %v", err)
			}
		}()
	}

	var completed atomic.Int64
	for i := 0; i < 20; i++ {
		remaining := 3
		task := sched.TaskFunc(func(rc sched.RunContext) sched.RunResult {
			remaining--
			if remaining > 0 {
				return sched.Reschedule
			}
			completed.Add(1)
			return sched.Complete
		})
		if err := h.Spawn(task); err != nil {
			log.Printf("spawn failed: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			log.Printf("received signal: %v, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := h.Close(ctx); err != nil {
				log.Printf("shutdown error: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			stats := h.Stats()
			log.Printf("numFutures=%d completed=%d terminated=%v", stats.NumFutures, completed.Load(), stats.Terminated)
			if stats.NumFutures == 0 {
				log.Printf("all demo tasks completed")
			}
		}
	}
}
