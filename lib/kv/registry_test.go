package kv

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stashdb/stashdb/lib/engine"
)

func newTestInstance(path string) *Instance {
	return NewInstance(nil, engine.OpenOptions{CreateIfMissing: true}, path)
}

func TestRegistryInsertGet(t *testing.T) {
	r := NewRegistry()

	inst := newTestInstance("/tmp/a")
	h := r.Insert(inst)

	if h != 0 {
		t.Errorf("expected first handle to be 0, got %d", h)
	}

	got, err := r.Get(h)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != inst {
		t.Errorf("expected the inserted instance back")
	}
}

func TestRegistryUnknownHandle(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get(42)
	if err == nil {
		t.Fatal("expected an error for a never-issued handle")
	}
	if KindOf(err) != KindUnknownHandle {
		t.Errorf("expected KindUnknownHandle, got %v", KindOf(err))
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()

	h := r.Insert(newTestInstance("/tmp/a"))

	inst, ok := r.Remove(h)
	if !ok || inst == nil {
		t.Fatal("expected remove of a live handle to succeed")
	}

	if _, err := r.Get(h); KindOf(err) != KindUnknownHandle {
		t.Errorf("expected removed handle to be unknown, got %v", err)
	}

	if _, ok := r.Remove(h); ok {
		t.Errorf("expected second remove to report no entry")
	}
}

func TestRegistryHandlesNeverReused(t *testing.T) {
	r := NewRegistry()

	h1 := r.Insert(newTestInstance("/tmp/a"))
	r.Remove(h1)

	h2 := r.Insert(newTestInstance("/tmp/b"))
	if h2 == h1 {
		t.Errorf("handle %d was reused after removal", h1)
	}
	if h2 <= h1 {
		t.Errorf("expected monotonically increasing handles, got %d after %d", h2, h1)
	}
}

func TestRegistryConcurrentInserts(t *testing.T) {
	r := NewRegistry()

	const n = 64
	handles := make([]Handle, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i] = r.Insert(newTestInstance("/tmp/x"))
		}(i)
	}
	wg.Wait()

	seen := make(map[Handle]bool, n)
	for _, h := range handles {
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
	}

	if r.Len() != n {
		t.Errorf("expected %d live instances, got %d", n, r.Len())
	}
}

func TestErrorKinds(t *testing.T) {
	err := Errorf(KindEngineIO, "disk on fire")

	if KindOf(err) != KindEngineIO {
		t.Errorf("expected KindEngineIO, got %v", KindOf(err))
	}

	var typed *Error
	if !errors.As(err, &typed) {
		t.Fatal("expected error to unwrap to *Error")
	}
	if typed.Msg != "disk on fire" {
		t.Errorf("unexpected message %q", typed.Msg)
	}

	if KindOf(errors.New("plain")) != KindUnknown {
		t.Errorf("expected plain errors to map to KindUnknown")
	}

	for _, k := range []Kind{KindEngineOpen, KindUnknownHandle, KindEngineIO, KindDecode} {
		if KindFromString(k.String()) != k {
			t.Errorf("kind %v does not round-trip through its string form", k)
		}
	}
}

func TestInstanceTeardownOnce(t *testing.T) {
	inst := newTestInstance("/tmp/a")

	if !inst.BeginTeardown() {
		t.Fatal("expected first BeginTeardown to win")
	}
	if inst.BeginTeardown() {
		t.Fatal("expected second BeginTeardown to lose")
	}
}

func TestInstanceTeardownDrainsLeases(t *testing.T) {
	inst := newTestInstance("/tmp/a")

	if !inst.Acquire() {
		t.Fatal("expected lease on a live instance to succeed")
	}

	if !inst.BeginTeardown() {
		t.Fatal("expected BeginTeardown to win")
	}

	// Teardown must block until the outstanding lease is released.
	torndown := make(chan struct{})
	go func() {
		_ = inst.Teardown(func() error {
			close(torndown)
			return nil
		})
	}()

	select {
	case <-torndown:
		t.Fatal("teardown ran while a lease was outstanding")
	case <-time.After(20 * time.Millisecond):
	}

	inst.Release()
	<-torndown

	// Once teardown has begun, further leases fail.
	if inst.Acquire() {
		inst.Release()
		t.Errorf("expected lease after teardown to fail")
	}
}
