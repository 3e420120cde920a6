package executor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStopped is returned when work is submitted after Stop.
var ErrStopped = errors.New("executor stopped")

// Executor bridges callers onto a bounded worker pool for storage I/O and a
// single primary goroutine for event dispatch and other serialized state.
//
// Operations submitted against different keys have no mutual ordering
// guarantee, and operations against the same key are not serialized either:
// correctness rests entirely on the atomicity of each single storage
// operation, trading per-key ordering for throughput.
type Executor struct {
	tasks   chan func()
	primary chan func()
	quit    chan struct{}
	workers int
	wg      sync.WaitGroup
	stop    sync.Once
	logger  *slog.Logger

	// mu orders submissions against Stop: every enqueue happens under the read
	// lock with stopped still false, so Stop's drain is guaranteed to see it.
	// A select on quit cannot give that guarantee; with both cases ready it
	// picks at random and can enqueue into a pool whose workers already exited,
	// leaving the Deferred unresolved forever.
	mu      sync.RWMutex
	stopped bool
}

// New creates an Executor with the given worker count and task queue size.
func New(workers, queueSize int, logger *slog.Logger) *Executor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		tasks:   make(chan func(), queueSize),
		primary: make(chan func(), queueSize),
		quit:    make(chan struct{}),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the worker pool and the primary loop.
func (e *Executor) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.workerLoop()
	}
	e.wg.Add(1)
	go e.primaryLoop()
}

// Stop shuts the executor down. In-flight tasks run to completion; tasks
// still queued are drained and executed before the goroutines exit.
func (e *Executor) Stop() {
	e.stop.Do(func() {
		e.mu.Lock()
		e.stopped = true
		e.mu.Unlock()
		close(e.quit)
	})
	e.wg.Wait()
}

func (e *Executor) workerLoop() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			e.run(task)
		case <-e.quit:
			for {
				select {
				case task := <-e.tasks:
					e.run(task)
				default:
					return
				}
			}
		}
	}
}

// run executes a task, containing panics so a misbehaving observer or storage
// call cannot take down the pool.
func (e *Executor) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("executor task panicked", slog.Any("panic", r))
		}
	}()
	task()
}

// primaryLoop is the single logical primary thread: every closure handed to
// RunOnPrimary executes here, one at a time.
func (e *Executor) primaryLoop() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.primary:
			e.run(task)
		case <-e.quit:
			for {
				select {
				case task := <-e.primary:
					e.run(task)
				default:
					return
				}
			}
		}
	}
}

// RunOnPrimary schedules fn to execute on the primary goroutine and returns
// without waiting for it. Returns ErrStopped after Stop.
func (e *Executor) RunOnPrimary(fn func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.stopped {
		return ErrStopped
	}
	e.primary <- fn
	return nil
}

// RunOnPrimaryWait schedules fn on the primary goroutine and blocks until it
// has executed or ctx is done.
func (e *Executor) RunOnPrimaryWait(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}
	e.mu.RLock()
	if e.stopped {
		e.mu.RUnlock()
		return ErrStopped
	}
	select {
	case <-ctx.Done():
		e.mu.RUnlock()
		return ctx.Err()
	case e.primary <- wrapped:
		e.mu.RUnlock()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit dispatches task onto the worker pool and returns a Deferred that
// resolves with the task's result. If the executor has stopped, the Deferred
// is rejected with ErrStopped.
func Submit[T any](e *Executor, task func() (T, error)) *Deferred[T] {
	d := NewDeferred[T]()
	run := func() {
		value, err := task()
		if err != nil {
			d.Reject(err)
			return
		}
		d.Resolve(value)
	}
	e.mu.RLock()
	if e.stopped {
		e.mu.RUnlock()
		d.Reject(ErrStopped)
		return d
	}
	e.tasks <- run
	e.mu.RUnlock()
	return d
}
