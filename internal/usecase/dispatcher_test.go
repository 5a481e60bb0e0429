package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testDispatcher(workers, queueSize int) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(workers, queueSize, nil, logger)
}

func TestDispatcher(t *testing.T) {
	t.Run("Executes Submitted Tasks", func(t *testing.T) {
		d := testDispatcher(2, 16)
		defer d.Stop()

		done := make(chan struct{})
		if ok := d.Submit("probe", func(ctx context.Context) { close(done) }); !ok {
			t.Fatal("submit rejected on an empty queue")
		}

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task never ran")
		}
	})

	t.Run("Stop Drains The Queue", func(t *testing.T) {
		d := testDispatcher(1, 64)

		var ran atomic.Int32
		var gate sync.WaitGroup
		gate.Add(1)

		// Hold the single worker so the rest of the tasks queue up.
		d.Submit("blocker", func(ctx context.Context) { gate.Wait() })
		for i := 0; i < 10; i++ {
			if ok := d.Submit("queued", func(ctx context.Context) { ran.Add(1) }); !ok {
				t.Fatalf("submit %d rejected", i)
			}
		}
		gate.Done()

		d.Stop()
		if got := ran.Load(); got != 10 {
			t.Fatalf("expected 10 drained tasks, got %d", got)
		}
	})

	t.Run("Drops When Full", func(t *testing.T) {
		d := testDispatcher(1, 1)

		var gate sync.WaitGroup
		gate.Add(1)
		d.Submit("blocker", func(ctx context.Context) { gate.Wait() })

		// One fits in the queue; once full, Submit must refuse, not block.
		for i := 0; ; i++ {
			if !d.Submit("filler", func(ctx context.Context) {}) {
				break
			}
			if i > 2 {
				t.Fatal("queue of size 1 accepted too many tasks")
			}
		}

		gate.Done()
		d.Stop()
	})

	t.Run("Rejects After Stop", func(t *testing.T) {
		d := testDispatcher(1, 4)
		d.Stop()

		if d.Submit("late", func(ctx context.Context) {}) {
			t.Fatal("submit must fail after Stop")
		}
	})

	t.Run("Recovers Task Panic", func(t *testing.T) {
		d := testDispatcher(1, 4)

		d.Submit("boom", func(ctx context.Context) { panic("task failure") })

		done := make(chan struct{})
		d.Submit("after", func(ctx context.Context) { close(done) })

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not survive the panic")
		}
		d.Stop()
	})

	t.Run("Stop Is Idempotent", func(t *testing.T) {
		d := testDispatcher(2, 4)
		d.Stop()
		d.Stop()
	})
}
