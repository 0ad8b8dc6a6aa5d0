package kv

import (
	"sync"
	"sync/atomic"

	"github.com/stashdb/stashdb/lib/engine"
)

// Instance is one open storage engine session plus the configuration and
// path needed to destroy it correctly. An Instance is created by a
// successful connect, owned exclusively by its registry entry, and removed
// by a successful close. No Instance outlives its close.
//
// Engine calls and teardown are mutually exclusive: operations take a shared
// lease via Acquire/Release around their engine I/O, and teardown waits for
// all leases to drain before the engine session is destroyed. A lease can
// therefore never observe a destroyed engine.
type Instance struct {
	// Engine is the owned, exclusive handle to the open engine session.
	Engine engine.IEngine
	// Opts is the configuration the engine was opened with. Destruction
	// requires the same options family, so they are retained here.
	Opts engine.OpenOptions
	// Path is the filesystem location backing the engine. Used for
	// destruction and diagnostics.
	Path string

	mu          sync.RWMutex
	tearingDown atomic.Bool
}

// NewInstance creates an Instance for an already-open engine session.
func NewInstance(eng engine.IEngine, opts engine.OpenOptions, path string) *Instance {
	return &Instance{
		Engine: eng,
		Opts:   opts,
		Path:   path,
	}
}

// Acquire takes a shared lease on the engine session. It returns false once
// teardown has begun; the caller must then treat the handle as already gone
// and must not touch the engine. A successful Acquire must be paired with
// Release after the engine call.
func (i *Instance) Acquire() bool {
	i.mu.RLock()
	if i.tearingDown.Load() {
		i.mu.RUnlock()
		return false
	}
	return true
}

// Release returns a lease taken by a successful Acquire.
func (i *Instance) Release() {
	i.mu.RUnlock()
}

// BeginTeardown marks the instance as being destroyed. It returns true for
// exactly one caller; concurrent closes on the same handle lose the race and
// must treat the handle as already gone.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (i *Instance) BeginTeardown() bool {
	return i.tearingDown.CompareAndSwap(false, true)
}

// Teardown runs fn with exclusive access to the engine session, after every
// outstanding lease has been released. Because BeginTeardown has already
// flagged the instance, any lease requested from here on fails rather than
// reaching the engine. Only the caller that won BeginTeardown may call
// Teardown, exactly once.
func (i *Instance) Teardown(fn func() error) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return fn()
}
