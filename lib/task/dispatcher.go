package task

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Dispatcher executes the compute phase of submitted tasks on a bounded set
// of concurrent workers. The caller's own goroutine is never blocked by a
// submission; suspension happens only at Future.Await.
//
// The bound is implemented as a counting semaphore (a buffered channel), so
// at most maxWorkers compute phases run at any time while queued tasks wait
// for a slot.
type Dispatcher struct {
	sem  chan struct{}
	stop chan struct{}

	// mu serializes the submit/close boundary: a task is registered with the
	// WaitGroup and the closed flag is raised under the same lock, so Close
	// never calls Wait while a straggling Submit is between its closed check
	// and its wg.Add.
	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewDispatcher creates a dispatcher running at most maxWorkers concurrent
// compute phases. maxWorkers <= 0 selects one worker per CPU.
func NewDispatcher(maxWorkers int) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &Dispatcher{
		sem:  make(chan struct{}, maxWorkers),
		stop: make(chan struct{}),
	}
}

// Close shuts the dispatcher down and waits for in-flight compute phases to
// finish. Tasks still waiting for a worker slot fail with ErrClosed; tasks
// submitted after Close fail the same way. Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// Submit schedules the task's compute phase and returns a future for it.
//
// The context is the task's cancellation signal: it is inspected at the
// phase boundary only. A context cancelled while the task waits for a
// worker slot, or observed as cancelled immediately before Compute would
// start, fails the future with ctx.Err() without running Compute. Once
// Compute has started it runs to completion.
func Submit[T any](d *Dispatcher, ctx context.Context, t ITask[T]) *Future[T] {
	f := newFuture(t)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		f.computeErr = ErrClosed
		close(f.done)
		return f
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer close(f.done)

		// A panicking compute phase must fail its future, not take down the
		// process.
		defer func() {
			if r := recover(); r != nil {
				f.computeErr = fmt.Errorf("task: compute panicked: %v", r)
			}
		}()

		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-d.stop:
			f.computeErr = ErrClosed
			return
		case <-ctx.Done():
			f.computeErr = ctx.Err()
			return
		}

		// Last cancellation check before the compute phase starts.
		if err := ctx.Err(); err != nil {
			f.computeErr = err
			return
		}

		f.out, f.computeErr = t.Compute(ctx)
	}()

	return f
}
