package host

import (
	"context"

	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/kv"
	"github.com/stashdb/stashdb/lib/task"
)

// Item is the result of a GetItem lookup. Found distinguishes the explicit
// "not found" outcome from an empty stored value.
type Item struct {
	Value string
	Found bool
}

// IHost is the operation surface of the store host. Every method submits one
// asynchronous task and returns immediately; the result is delivered through
// the returned future. The context passed to a method is that operation's
// cancellation signal (see the task package for the exact semantics).
//
// Keys and values are UTF-8 text end-to-end: they are written as the raw
// bytes of the given strings, and the read path validates stored bytes
// before handing them back, failing with a DecodeFailure error instead of
// mis-decoding.
type IHost interface {
	// Connect opens a new store at path with the given options and returns
	// the freshly issued handle for it. Fails with EngineOpenFailure if the
	// engine cannot open the path.
	Connect(ctx context.Context, path string, opts engine.OpenOptions) *task.Future[kv.Handle]

	// GetItem performs an exact-key lookup. A missing key is reported via
	// Item.Found=false, not an error.
	GetItem(ctx context.Context, h kv.Handle, key string) *task.Future[Item]

	// SetItem writes key -> value, overwriting any existing value.
	SetItem(ctx context.Context, h kv.Handle, key, value string) *task.Future[struct{}]

	// GetKeys returns all keys currently visible in the store, in ascending
	// byte order, filtered to those whose raw bytes begin with prefix. An
	// empty prefix returns every key.
	GetKeys(ctx context.Context, h kv.Handle, prefix string) *task.Future[[]string]

	// RemoveItem deletes key from the store. Deleting an absent key
	// succeeds.
	RemoveItem(ctx context.Context, h kv.Handle, key string) *task.Future[struct{}]

	// Close destroys the store behind h including its on-disk data and
	// invalidates the handle permanently. The registry entry is removed
	// even if the destroy reports an error; the error is still delivered
	// through the future.
	Close(ctx context.Context, h kv.Handle) *task.Future[struct{}]

	// Shutdown stops the dispatcher, waits for in-flight operations and
	// releases all remaining open stores without destroying their data.
	Shutdown(ctx context.Context) error
}
