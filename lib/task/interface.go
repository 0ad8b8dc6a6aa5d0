package task

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by futures whose task was submitted to a dispatcher
// that has already been shut down.
var ErrClosed = errors.New("task: dispatcher closed")

// --------------------------------------------------------------------------
// Task Interface
// --------------------------------------------------------------------------

// ITask is one asynchronous operation's unit of work. A task captures its
// immutable input arguments at construction time and is never reused across
// operations: one task, one invocation.
//
// A task has exactly two phases:
//
//   - Compute runs on a worker goroutine. It may block, perform engine I/O
//     and touch the registry. The context carries the caller's cancellation
//     signal; it is checked by the dispatcher at the phase boundary, so a
//     task does not need to poll it (though a long-running Compute may).
//
//   - Resolve runs on the goroutine awaiting the future, after Compute has
//     finished. It converts the computed output (or error) into the value
//     handed back to the caller. Resolve observes all memory writes made by
//     Compute.
//
// Cancellation is cooperative: a context cancelled before Compute starts
// skips the phase entirely; once Compute is running, its effects are not
// rolled back.
type ITask[T any] interface {
	Compute(ctx context.Context) (T, error)
	Resolve(out T, err error) (T, error)
}

// --------------------------------------------------------------------------
// Future
// --------------------------------------------------------------------------

// Future is the caller-side result of a submitted task. It is resolved at
// most once; concurrent and repeated Await calls all observe the same value.
type Future[T any] struct {
	task ITask[T]
	done chan struct{}

	// set by the worker goroutine before done is closed
	out        T
	computeErr error

	// set by the first Await after done is closed
	resolveOnce sync.Once
	val         T
	err         error
}

func newFuture[T any](t ITask[T]) *Future[T] {
	return &Future[T]{
		task: t,
		done: make(chan struct{}),
	}
}

// Done returns a channel that is closed once the compute phase has finished
// (successfully, with an error, or cancelled before it started).
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the compute phase has finished, then runs the task's
// resolve phase on the calling goroutine and returns its result.
//
// If ctx is cancelled while waiting, Await returns the context error; the
// compute phase keeps running and its effects (e.g. a completed write) are
// not rolled back. A later Await call will still deliver the result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.done:
	}

	f.resolveOnce.Do(func() {
		f.val, f.err = f.task.Resolve(f.out, f.computeErr)
	})
	return f.val, f.err
}
