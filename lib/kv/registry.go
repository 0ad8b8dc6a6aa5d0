package kv

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Registry is the process-wide table mapping live handles to their
// Instances. Only connect inserts and only close removes; every other
// operation reads through the table.
//
// Handle issuance is a monotonically increasing counter that never resets
// and never reuses a value, even after the corresponding entry is removed.
// A stale handle captured after a close can therefore never silently refer
// to a different, newer instance.
//
// Each table access is atomic on its own. Engine I/O is performed after the
// instance reference has been obtained, outside any registry-wide critical
// section, so operations on unrelated handles never serialize behind one
// another.
type Registry struct {
	instances  *xsync.MapOf[Handle, *Instance]
	nextHandle atomic.Uint32
}

// NewRegistry creates an empty registry. The first issued handle is 0.
func NewRegistry() *Registry {
	return &Registry{
		instances: xsync.NewMapOf[Handle, *Instance](),
	}
}

// Insert stores the instance under a freshly issued handle and returns it.
func (r *Registry) Insert(inst *Instance) Handle {
	h := Handle(r.nextHandle.Add(1) - 1)
	r.instances.Store(h, inst)
	return h
}

// Get resolves a handle to its live instance. It returns a KindUnknownHandle
// error if the handle was never issued or has already been closed.
func (r *Registry) Get(h Handle) (*Instance, error) {
	inst, ok := r.instances.Load(h)
	if !ok {
		return nil, Errorf(KindUnknownHandle, "no open store for handle %d", h)
	}
	return inst, nil
}

// Remove deletes the registry entry for h. It returns the removed instance
// and whether an entry existed.
func (r *Registry) Remove(h Handle) (*Instance, bool) {
	return r.instances.LoadAndDelete(h)
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	return r.instances.Size()
}

// Range calls fn for every live entry until fn returns false.
func (r *Registry) Range(fn func(h Handle, inst *Instance) bool) {
	r.instances.Range(fn)
}
