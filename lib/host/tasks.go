package host

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/kv"
)

// One task type per operation. A task captures its immutable arguments at
// submission time and is used for exactly one invocation. Compute phases
// resolve the handle first and perform engine I/O against the resolved
// instance; Resolve hands the computed value through unchanged.

// acquireInstance resolves the handle and takes a shared lease on the
// instance, so a concurrent close cannot destroy the engine session while
// the operation's engine call is in flight. The caller must invoke release
// after its last engine access.
func (h *hostImpl) acquireInstance(handle kv.Handle) (inst *kv.Instance, release func(), err error) {
	inst, err = h.registry.Get(handle)
	if err != nil {
		return nil, nil, err
	}
	if !inst.Acquire() {
		return nil, nil, kv.Errorf(kv.KindUnknownHandle, "no open store for handle %d", handle)
	}
	return inst, inst.Release, nil
}

// --------------------------------------------------------------------------
// connect
// --------------------------------------------------------------------------

type connectTask struct {
	host *hostImpl
	path string
	opts engine.OpenOptions
}

func (t *connectTask) Compute(ctx context.Context) (h kv.Handle, err error) {
	defer func(start time.Time) { observe("connect", start, err) }(time.Now())

	eng, err := t.host.factory(t.path, t.opts)
	if err != nil {
		return 0, kv.Errorf(kv.KindEngineOpen, "open store at %s: %v", t.path, err)
	}

	h = t.host.registry.Insert(kv.NewInstance(eng, t.opts, t.path))
	log.Debugf("opened store %s as handle %d", t.path, h)
	return h, nil
}

func (t *connectTask) Resolve(out kv.Handle, err error) (kv.Handle, error) {
	return out, err
}

// --------------------------------------------------------------------------
// get_item
// --------------------------------------------------------------------------

type getItemTask struct {
	host   *hostImpl
	handle kv.Handle
	key    string
}

func (t *getItemTask) Compute(ctx context.Context) (item Item, err error) {
	defer func(start time.Time) { observe("get_item", start, err) }(time.Now())

	inst, release, err := t.host.acquireInstance(t.handle)
	if err != nil {
		return Item{}, err
	}
	defer release()

	value, found, err := inst.Engine.Get([]byte(t.key))
	if err != nil {
		return Item{}, kv.Errorf(kv.KindEngineIO, "get %q: %v", t.key, err)
	}
	if !found {
		return Item{}, nil
	}
	if !utf8.Valid(value) {
		return Item{}, kv.Errorf(kv.KindDecode, "stored value for key %q is not valid UTF-8", t.key)
	}
	return Item{Value: string(value), Found: true}, nil
}

func (t *getItemTask) Resolve(out Item, err error) (Item, error) {
	return out, err
}

// --------------------------------------------------------------------------
// set_item
// --------------------------------------------------------------------------

type setItemTask struct {
	host   *hostImpl
	handle kv.Handle
	key    string
	value  string
}

func (t *setItemTask) Compute(ctx context.Context) (_ struct{}, err error) {
	defer func(start time.Time) { observe("set_item", start, err) }(time.Now())

	inst, release, err := t.host.acquireInstance(t.handle)
	if err != nil {
		return struct{}{}, err
	}
	defer release()

	if err := inst.Engine.Put([]byte(t.key), []byte(t.value)); err != nil {
		return struct{}{}, kv.Errorf(kv.KindEngineIO, "put %q: %v", t.key, err)
	}
	return struct{}{}, nil
}

func (t *setItemTask) Resolve(out struct{}, err error) (struct{}, error) {
	return out, err
}

// --------------------------------------------------------------------------
// get_keys
// --------------------------------------------------------------------------

type getKeysTask struct {
	host   *hostImpl
	handle kv.Handle
	prefix string
}

func (t *getKeysTask) Compute(ctx context.Context) (keys []string, err error) {
	defer func(start time.Time) { observe("get_keys", start, err) }(time.Now())

	inst, release, err := t.host.acquireInstance(t.handle)
	if err != nil {
		return nil, err
	}
	defer release()

	raw, err := inst.Engine.Keys([]byte(t.prefix))
	if err != nil {
		return nil, kv.Errorf(kv.KindEngineIO, "scan keys: %v", err)
	}

	keys = make([]string, 0, len(raw))
	for _, k := range raw {
		if !utf8.Valid(k) {
			return nil, kv.Errorf(kv.KindDecode, "stored key %q is not valid UTF-8", k)
		}
		keys = append(keys, string(k))
	}
	return keys, nil
}

func (t *getKeysTask) Resolve(out []string, err error) ([]string, error) {
	return out, err
}

// --------------------------------------------------------------------------
// remove_item
// --------------------------------------------------------------------------

type removeItemTask struct {
	host   *hostImpl
	handle kv.Handle
	key    string
}

func (t *removeItemTask) Compute(ctx context.Context) (_ struct{}, err error) {
	defer func(start time.Time) { observe("remove_item", start, err) }(time.Now())

	inst, release, err := t.host.acquireInstance(t.handle)
	if err != nil {
		return struct{}{}, err
	}
	defer release()

	if err := inst.Engine.Delete([]byte(t.key)); err != nil {
		return struct{}{}, kv.Errorf(kv.KindEngineIO, "delete %q: %v", t.key, err)
	}
	return struct{}{}, nil
}

func (t *removeItemTask) Resolve(out struct{}, err error) (struct{}, error) {
	return out, err
}

// --------------------------------------------------------------------------
// close
// --------------------------------------------------------------------------

type closeTask struct {
	host   *hostImpl
	handle kv.Handle
}

func (t *closeTask) Compute(ctx context.Context) (_ struct{}, err error) {
	defer func(start time.Time) { observe("close", start, err) }(time.Now())

	inst, err := t.host.registry.Get(t.handle)
	if err != nil {
		return struct{}{}, err
	}

	// Exactly one close wins the teardown race; a concurrent close on the
	// same handle sees it as already gone.
	if !inst.BeginTeardown() {
		return struct{}{}, kv.Errorf(kv.KindUnknownHandle, "store for handle %d is already closing", t.handle)
	}

	// Teardown waits for in-flight engine calls on this instance to drain,
	// so the destroy never pulls the engine out from under an operation that
	// resolved its lease first.
	log.Infof("destroying store %s (handle %d)", inst.Path, t.handle)
	destroyErr := inst.Teardown(inst.Engine.Destroy)

	// The entry is removed whether or not the destroy succeeded: the handle
	// is unusable either way. The failure is still reported to the caller.
	t.host.registry.Remove(t.handle)

	if destroyErr != nil {
		return struct{}{}, kv.Errorf(kv.KindEngineIO, "destroy store %s: %v (handle %d invalidated)", inst.Path, destroyErr, t.handle)
	}
	return struct{}{}, nil
}

func (t *closeTask) Resolve(out struct{}, err error) (struct{}, error) {
	return out, err
}
