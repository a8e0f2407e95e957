package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// Runner is an in-process task queue with bounded retries. Enqueue never
// blocks the caller beyond the channel buffer; failed tasks are retried with a
// fixed backoff and dropped (with an error log) once attempts run out.
type Runner struct {
	logger     *slog.Logger
	queue      chan task
	maxRetries int
	backoff    time.Duration

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// NewRunner creates a Runner with the given buffer size and retry policy.
func NewRunner(logger *slog.Logger, buffer, maxRetries int, backoff time.Duration) *Runner {
	return &Runner{
		logger:     logger,
		queue:      make(chan task, buffer),
		maxRetries: maxRetries,
		backoff:    backoff,
		stop:       make(chan struct{}),
	}
}

// Start launches the given number of workers.
func (r *Runner) Start(workers int) {
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
}

// Stop stops accepting work and waits for in-flight tasks to finish.
func (r *Runner) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *Runner) Enqueue(name string, fn func(ctx context.Context) error) {
	select {
	case r.queue <- task{name: name, fn: fn}:
	case <-r.stop:
		r.logger.Warn("task dropped, queue stopped", "task", name)
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for {
		select {
		case t := <-r.queue:
			r.run(t)
		case <-r.stop:
			// Drain what is already queued before exiting.
			for {
				select {
				case t := <-r.queue:
					r.run(t)
				default:
					return
				}
			}
		}
	}
}

func (r *Runner) run(t task) {
	ctx := context.Background()
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(r.backoff)
		}
		if err = t.fn(ctx); err == nil {
			return
		}
		r.logger.Warn("task failed", "task", t.name, "attempt", attempt+1, "err", err)
	}
	r.logger.Error("task dropped after retries", "task", t.name, "err", err)
}
