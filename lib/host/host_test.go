package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/engine/pebble"
	"github.com/stashdb/stashdb/lib/kv"
)

func newTestHost(t *testing.T) IHost {
	t.Helper()
	h := New(pebble.Open, Config{MaxWorkers: 4})
	t.Cleanup(func() {
		if err := h.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})
	return h
}

func mustConnect(t *testing.T, h IHost, path string) kv.Handle {
	t.Helper()
	handle, err := h.Connect(context.Background(), path, engine.OpenOptions{
		CreateIfMissing: true,
		KeepLogFileNum:  1,
	}).Await(context.Background())
	if err != nil {
		t.Fatalf("connect %s failed: %v", path, err)
	}
	return handle
}

func mustSet(t *testing.T, h IHost, handle kv.Handle, key, value string) {
	t.Helper()
	if _, err := h.SetItem(context.Background(), handle, key, value).Await(context.Background()); err != nil {
		t.Fatalf("set %q failed: %v", key, err)
	}
}

func mustGet(t *testing.T, h IHost, handle kv.Handle, key string) Item {
	t.Helper()
	item, err := h.GetItem(context.Background(), handle, key).Await(context.Background())
	if err != nil {
		t.Fatalf("get %q failed: %v", key, err)
	}
	return item
}

func TestWriteThenRead(t *testing.T) {
	h := newTestHost(t)
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))

	mustSet(t, h, handle, "k", "v1")
	if item := mustGet(t, h, handle, "k"); !item.Found || item.Value != "v1" {
		t.Errorf("expected v1, got %+v", item)
	}

	mustSet(t, h, handle, "k", "v2")
	if item := mustGet(t, h, handle, "k"); !item.Found || item.Value != "v2" {
		t.Errorf("expected overwrite to v2, got %+v", item)
	}
}

func TestGetItemNotFound(t *testing.T) {
	h := newTestHost(t)
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))

	// Never written: explicit not-found, not an error, not an empty value.
	item := mustGet(t, h, handle, "ghost")
	if item.Found {
		t.Errorf("expected not-found for a never-written key, got %+v", item)
	}

	// An empty stored value is distinct from not-found.
	mustSet(t, h, handle, "present", "")
	if item := mustGet(t, h, handle, "present"); !item.Found || item.Value != "" {
		t.Errorf("expected found empty value, got %+v", item)
	}

	// Removed since: not-found again.
	mustSet(t, h, handle, "gone", "x")
	if _, err := h.RemoveItem(context.Background(), handle, "gone").Await(context.Background()); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if item := mustGet(t, h, handle, "gone"); item.Found {
		t.Errorf("expected not-found after remove, got %+v", item)
	}
}

func TestRemoveItemAbsentKey(t *testing.T) {
	h := newTestHost(t)
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))

	mustSet(t, h, handle, "keep", "v")

	if _, err := h.RemoveItem(context.Background(), handle, "never-existed").Await(context.Background()); err != nil {
		t.Errorf("removing an absent key must succeed, got %v", err)
	}

	if item := mustGet(t, h, handle, "keep"); !item.Found || item.Value != "v" {
		t.Errorf("unrelated key changed by no-op remove: %+v", item)
	}
}

func TestGetKeysOrderAndPrefix(t *testing.T) {
	h := newTestHost(t)
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))

	for _, k := range []string{"b", "a", "ab", "c", "aa"} {
		mustSet(t, h, handle, k, "x")
	}

	keys, err := h.GetKeys(context.Background(), handle, "").Await(context.Background())
	if err != nil {
		t.Fatalf("get_keys failed: %v", err)
	}
	if want := []string{"a", "aa", "ab", "b", "c"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("expected %q in ascending byte order, got %q", want, keys)
	}

	filtered, err := h.GetKeys(context.Background(), handle, "a").Await(context.Background())
	if err != nil {
		t.Fatalf("prefixed get_keys failed: %v", err)
	}
	if want := []string{"a", "aa", "ab"}; !reflect.DeepEqual(filtered, want) {
		t.Errorf("expected prefix subset %q in unfiltered order, got %q", want, filtered)
	}
}

func TestUnknownHandle(t *testing.T) {
	h := newTestHost(t)
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))
	mustSet(t, h, handle, "k", "v")

	ctx := context.Background()
	const bogus = kv.Handle(999)

	if _, err := h.GetItem(ctx, bogus, "k").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("get_item: expected UnknownHandle, got %v", err)
	}
	if _, err := h.SetItem(ctx, bogus, "k", "v").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("set_item: expected UnknownHandle, got %v", err)
	}
	if _, err := h.GetKeys(ctx, bogus, "").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("get_keys: expected UnknownHandle, got %v", err)
	}
	if _, err := h.RemoveItem(ctx, bogus, "k").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("remove_item: expected UnknownHandle, got %v", err)
	}
	if _, err := h.Close(ctx, bogus).Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("close: expected UnknownHandle, got %v", err)
	}

	// No observable state change on the live handle.
	if item := mustGet(t, h, handle, "k"); !item.Found || item.Value != "v" {
		t.Errorf("live store affected by failed operations: %+v", item)
	}
}

func TestCloseDestroysData(t *testing.T) {
	h := newTestHost(t)
	path := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	handle := mustConnect(t, h, path)
	mustSet(t, h, handle, "k", "v")

	if _, err := h.Close(ctx, handle).Await(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected on-disk data to be removed, stat err=%v", err)
	}

	// The closed handle is permanently invalid.
	if _, err := h.GetItem(ctx, handle, "k").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("expected UnknownHandle after close, got %v", err)
	}
	if _, err := h.Close(ctx, handle).Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("expected UnknownHandle on double close, got %v", err)
	}

	// A reconnect at the same path yields an empty store under a new handle.
	handle2 := mustConnect(t, h, path)
	if handle2 == handle {
		t.Errorf("handle %d reused after close", handle)
	}
	keys, err := h.GetKeys(ctx, handle2, "").Await(ctx)
	if err != nil {
		t.Fatalf("get_keys after reconnect failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty store after close+reconnect, got %q", keys)
	}
}

func TestConnectMissingStoreFails(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()

	_, err := h.Connect(ctx, filepath.Join(t.TempDir(), "absent"), engine.OpenOptions{
		CreateIfMissing: false,
	}).Await(ctx)
	if kv.KindOf(err) != kv.KindEngineOpen {
		t.Errorf("expected EngineOpenFailure, got %v", err)
	}
}

func TestConcurrentSetsOnDifferentHandles(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()

	h1 := mustConnect(t, h, filepath.Join(t.TempDir(), "db1"))
	h2 := mustConnect(t, h, filepath.Join(t.TempDir(), "db2"))

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := string(rune('a' + i%26))
			if _, err := h.SetItem(ctx, h1, "one-"+key, "1").Await(ctx); err != nil {
				t.Errorf("set on handle 1 failed: %v", err)
			}
			if _, err := h.SetItem(ctx, h2, "two-"+key, "2").Await(ctx); err != nil {
				t.Errorf("set on handle 2 failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// No cross-contamination between the two stores.
	keys1, err := h.GetKeys(ctx, h1, "two-").Await(ctx)
	if err != nil || len(keys1) != 0 {
		t.Errorf("store 1 contains foreign keys %q (err=%v)", keys1, err)
	}
	keys2, err := h.GetKeys(ctx, h2, "one-").Await(ctx)
	if err != nil || len(keys2) != 0 {
		t.Errorf("store 2 contains foreign keys %q (err=%v)", keys2, err)
	}
}

// TestExampleSession replays the canonical session from the interface
// documentation end to end.
func TestExampleSession(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()

	handle, err := h.Connect(ctx, filepath.Join(t.TempDir(), "db"), engine.OpenOptions{
		CreateIfMissing: true,
		KeepLogFileNum:  1,
	}).Await(ctx)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if handle != 0 {
		t.Errorf("expected first handle to be 0, got %d", handle)
	}

	mustSet(t, h, handle, "a", "1")
	mustSet(t, h, handle, "b", "2")

	keys, _ := h.GetKeys(ctx, handle, "").Await(ctx)
	if !reflect.DeepEqual(keys, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %q", keys)
	}

	keys, _ = h.GetKeys(ctx, handle, "a").Await(ctx)
	if !reflect.DeepEqual(keys, []string{"a"}) {
		t.Errorf("expected [a], got %q", keys)
	}

	if _, err := h.RemoveItem(ctx, handle, "a").Await(ctx); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if item := mustGet(t, h, handle, "a"); item.Found {
		t.Errorf("expected not-found after remove, got %+v", item)
	}

	if _, err := h.Close(ctx, handle).Await(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestCloseWaitsForInFlightReads(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))
	mustSet(t, h, handle, "k", "v")

	// Hold a read lease the way an operation does between resolving its
	// instance and finishing the engine call.
	inst, err := h.(*hostImpl).registry.Get(handle)
	if err != nil {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if !inst.Acquire() {
		t.Fatal("lease on a live instance must succeed")
	}

	closeFut := h.Close(ctx, handle)

	// The destroy must drain the lease first.
	select {
	case <-closeFut.Done():
		t.Fatal("close finished while a read lease was held")
	case <-time.After(50 * time.Millisecond):
	}

	// The engine stays usable for the leased call.
	if _, found, err := inst.Engine.Get([]byte("k")); err != nil || !found {
		t.Fatalf("engine call under lease failed: found=%v err=%v", found, err)
	}

	inst.Release()
	if _, err := closeFut.Await(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// After the close won, new leases and new operations lose cleanly.
	if inst.Acquire() {
		inst.Release()
		t.Errorf("lease must fail once teardown has completed")
	}
	if _, err := h.GetItem(ctx, handle, "k").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("expected UnknownHandle after close, got %v", err)
	}
}

func TestCloseDuringConcurrentReads(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))
	mustSet(t, h, handle, "k", "v")

	// Every read racing the close must either see the value or fail with
	// UnknownHandle; nothing may reach a destroyed engine.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if _, err := h.GetItem(ctx, handle, "k").Await(ctx); err != nil && kv.KindOf(err) != kv.KindUnknownHandle {
					t.Errorf("read racing close failed with %v", err)
				}
			}
		}()
	}

	if _, err := h.Close(ctx, handle).Await(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	wg.Wait()
}

// destroyFailingEngine delegates to a real engine session but reports a fixed
// error from Destroy, after releasing the session.
type destroyFailingEngine struct {
	engine.IEngine
	destroyErr error
}

func (e *destroyFailingEngine) Destroy() error {
	_ = e.IEngine.Close()
	return e.destroyErr
}

func TestCloseReportsDestroyFailure(t *testing.T) {
	destroyErr := errors.New("directory busy")
	factory := func(path string, opts engine.OpenOptions) (engine.IEngine, error) {
		eng, err := pebble.Open(path, opts)
		if err != nil {
			return nil, err
		}
		return &destroyFailingEngine{IEngine: eng, destroyErr: destroyErr}, nil
	}

	h := New(factory, Config{MaxWorkers: 2})
	t.Cleanup(func() {
		if err := h.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})

	ctx := context.Background()
	handle := mustConnect(t, h, filepath.Join(t.TempDir(), "db"))
	mustSet(t, h, handle, "k", "v")

	// The destroy failure is reported to the caller as an engine I/O error.
	if _, err := h.Close(ctx, handle).Await(ctx); kv.KindOf(err) != kv.KindEngineIO {
		t.Fatalf("expected EngineIoFailure from failed destroy, got %v", err)
	}

	// The handle is invalidated regardless of the failure.
	if _, err := h.GetItem(ctx, handle, "k").Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("expected UnknownHandle after failed destroy, got %v", err)
	}
	if _, err := h.Close(ctx, handle).Await(ctx); kv.KindOf(err) != kv.KindUnknownHandle {
		t.Errorf("expected UnknownHandle on re-close after failed destroy, got %v", err)
	}
}

func TestDecodeFailureOnInvalidValue(t *testing.T) {
	h := newTestHost(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db")

	handle := mustConnect(t, h, path)

	// Plant a non-UTF-8 value behind the host's back through a direct
	// engine session on the same path.
	inst, err := h.(*hostImpl).registry.Get(handle)
	if err != nil {
		t.Fatalf("registry lookup failed: %v", err)
	}
	if err := inst.Engine.Put([]byte("bad"), []byte{0xff, 0xfe}); err != nil {
		t.Fatalf("raw put failed: %v", err)
	}

	if _, err := h.GetItem(ctx, handle, "bad").Await(ctx); kv.KindOf(err) != kv.KindDecode {
		t.Errorf("expected DecodeFailure for invalid UTF-8 value, got %v", err)
	}

	if err := inst.Engine.Put([]byte{0xff, 0xfe}, []byte("v")); err != nil {
		t.Fatalf("raw put failed: %v", err)
	}
	if _, err := h.GetKeys(ctx, handle, "").Await(ctx); kv.KindOf(err) != kv.KindDecode {
		t.Errorf("expected DecodeFailure for invalid UTF-8 key, got %v", err)
	}
}
