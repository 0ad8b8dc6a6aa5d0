// Package task provides the asynchronous unit-of-work abstraction used by
// the store host: a task with an off-thread compute phase and a
// caller-context resolve phase, a future to await it, and a dispatcher that
// bounds how many compute phases run concurrently.
//
// The package focuses on:
//   - ITask: the two-phase task contract (Compute on a worker goroutine,
//     Resolve on the awaiting goroutine)
//   - Future: at-most-once resolution, safe for concurrent Await calls
//   - Dispatcher: a counting-semaphore worker bound with clean shutdown
//   - Cooperative cancellation checked at phase boundaries only. Genuine
//     mid-I/O interruption is not assumed available from the underlying
//     engine, so a cancellation observed after Compute has started does not
//     roll back effects already applied
//
// Ordering: tasks submitted to the same dispatcher have no guaranteed
// relative execution order. Callers requiring read-after-write ordering on
// one key must await the write before submitting the read.
package task
