// Package host assembles the core of the system: the six store operations
// (connect, get_item, set_item, get_keys, remove_item, close) implemented as
// asynchronous tasks over the handle registry and an engine factory.
//
// Data flow: caller -> task with captured arguments -> dispatcher schedules
// the compute phase on a worker -> compute resolves the handle through the
// registry and invokes the engine -> resolve delivers the result to the
// awaiting goroutine.
//
// Operations on different handles execute concurrently. Operations on the
// same handle have no guaranteed relative order; callers needing
// read-after-write ordering on a key must await the write before submitting
// the read. All failures are typed kv.Error values: an unknown handle, a
// failed engine call or undecodable stored bytes reject the operation, they
// never terminate the process.
package host
