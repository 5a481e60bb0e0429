package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
)

type task struct {
	name string
	fn   func(context.Context)
}

// Dispatcher runs fire-and-forget background work on a fixed worker pool.
// Submit never blocks and returns no handle: when the queue is full the task
// is dropped and counted. Panics inside tasks are recovered and logged, so a
// failing background job can never surface to a request.
type Dispatcher struct {
	tasks   chan task
	logger  *slog.Logger
	metrics *metrics.AuthMetrics
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given worker count and queue
// size. Metrics may be nil.
func NewDispatcher(workers, queueSize int, m *metrics.AuthMetrics, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		tasks:   make(chan task, queueSize),
		logger:  logger.With("component", "dispatcher"),
		metrics: m,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Submit enqueues work and discards the handle. Returns false when the task
// was dropped because the queue was full or the dispatcher is stopped.
func (d *Dispatcher) Submit(name string, fn func(context.Context)) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	// Enqueue under the lock so Stop cannot close the channel mid-send.
	select {
	case d.tasks <- task{name: name, fn: fn}:
		d.mu.Unlock()
		return true
	default:
		d.mu.Unlock()
		if d.metrics != nil {
			d.metrics.DeferredDropped.Inc()
		}
		d.logger.Warn("background task dropped, queue full", "task", name)
		return false
	}
}

// Stop closes the queue and waits for queued tasks to drain.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("background task panicked", "task", t.name, "panic", r)
		}
	}()
	t.fn(context.Background())
}
