package testing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stashdb/stashdb/lib/engine"
)

// RunEngineTests runs a conformance test suite against an IEngine
// implementation. The factory is called with fresh directories below
// t.TempDir, so implementations are tested against real on-disk state.
func RunEngineTests(t *testing.T, name string, factory engine.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("PutGet", func(t *testing.T) {
			testPutGet(t, factory)
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory)
		})

		t.Run("KeysOrdered", func(t *testing.T) {
			testKeysOrdered(t, factory)
		})

		t.Run("KeysPrefix", func(t *testing.T) {
			testKeysPrefix(t, factory)
		})

		t.Run("Persistence", func(t *testing.T) {
			testPersistence(t, factory)
		})

		t.Run("DestroyWipes", func(t *testing.T) {
			testDestroyWipes(t, factory)
		})

		t.Run("OpenMissing", func(t *testing.T) {
			testOpenMissing(t, factory)
		})

		t.Run("InvalidOptions", func(t *testing.T) {
			testInvalidOptions(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// mustOpen opens a fresh store below t.TempDir and returns it with its path.
func mustOpen(t *testing.T, factory engine.Factory) (engine.IEngine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store")
	eng, err := factory(path, engine.OpenOptions{CreateIfMissing: true, KeepLogFileNum: 1})
	if err != nil {
		t.Fatalf("failed to open store at %s: %v", path, err)
	}
	return eng, path
}

func mustPut(t *testing.T, eng engine.IEngine, key, value string) {
	t.Helper()
	if err := eng.Put([]byte(key), []byte(value)); err != nil {
		t.Fatalf("put %q failed: %v", key, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, factory engine.Factory) {
	eng, _ := mustOpen(t, factory)
	defer eng.Close()

	mustPut(t, eng, "alpha", "one")

	value, found, err := eng.Get([]byte("alpha"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !found {
		t.Errorf("expected key alpha to exist after put")
	}
	if !bytes.Equal(value, []byte("one")) {
		t.Errorf("expected value %q, got %q", "one", value)
	}

	// Overwrite replaces the previous value.
	mustPut(t, eng, "alpha", "two")
	value, found, err = eng.Get([]byte("alpha"))
	if err != nil || !found {
		t.Fatalf("get after overwrite: found=%v err=%v", found, err)
	}
	if !bytes.Equal(value, []byte("two")) {
		t.Errorf("expected overwritten value %q, got %q", "two", value)
	}

	// A key never written reports found=false without an error.
	_, found, err = eng.Get([]byte("nonexistent"))
	if err != nil {
		t.Errorf("get of missing key returned error: %v", err)
	}
	if found {
		t.Errorf("expected missing key to report found=false")
	}

	// An empty stored value is still a found value.
	mustPut(t, eng, "empty", "")
	value, found, err = eng.Get([]byte("empty"))
	if err != nil || !found {
		t.Fatalf("get of empty value: found=%v err=%v", found, err)
	}
	if len(value) != 0 {
		t.Errorf("expected empty value, got %q", value)
	}
}

func testDelete(t *testing.T, factory engine.Factory) {
	eng, _ := mustOpen(t, factory)
	defer eng.Close()

	mustPut(t, eng, "doomed", "value")

	if err := eng.Delete([]byte("doomed")); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	_, found, err := eng.Get([]byte("doomed"))
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if found {
		t.Errorf("expected key to be gone after delete")
	}

	// Deleting an absent key is not an error.
	if err := eng.Delete([]byte("never-existed")); err != nil {
		t.Errorf("delete of absent key returned error: %v", err)
	}
}

func testKeysOrdered(t *testing.T, factory engine.Factory) {
	eng, _ := mustOpen(t, factory)
	defer eng.Close()

	// Insert out of order; iteration must come back in ascending byte order.
	for _, k := range []string{"pear", "apple", "zucchini", "banana"} {
		mustPut(t, eng, k, "x")
	}

	keys, err := eng.Keys(nil)
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}

	want := []string{"apple", "banana", "pear", "zucchini"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range keys {
		if string(k) != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], k)
		}
	}
}

func testKeysPrefix(t *testing.T, factory engine.Factory) {
	eng, _ := mustOpen(t, factory)
	defer eng.Close()

	for _, k := range []string{"user:1", "user:2", "session:9", "user:10", "zeta"} {
		mustPut(t, eng, k, "x")
	}

	keys, err := eng.Keys([]byte("user:"))
	if err != nil {
		t.Fatalf("prefix scan failed: %v", err)
	}

	// Same relative order as the unfiltered scan.
	want := []string{"user:1", "user:10", "user:2"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys with prefix, got %d: %q", len(want), len(keys), keys)
	}
	for i, k := range keys {
		if string(k) != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], k)
		}
	}

	// A prefix matching nothing yields no keys and no error.
	keys, err = eng.Keys([]byte("absent:"))
	if err != nil {
		t.Fatalf("empty prefix scan failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys for unmatched prefix, got %q", keys)
	}

	// A prefix of 0xff bytes must not break the bound computation.
	mustPut(t, eng, "\xff\xff", "x")
	keys, err = eng.Keys([]byte{0xff})
	if err != nil {
		t.Fatalf("0xff prefix scan failed: %v", err)
	}
	if len(keys) != 1 || !bytes.Equal(keys[0], []byte("\xff\xff")) {
		t.Errorf("expected single 0xff key, got %q", keys)
	}
}

func testPersistence(t *testing.T, factory engine.Factory) {
	eng, path := mustOpen(t, factory)
	mustPut(t, eng, "durable", "value")

	if err := eng.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Close releases the session but keeps the data; a reopen sees it.
	eng2, err := factory(path, engine.OpenOptions{CreateIfMissing: false, KeepLogFileNum: 1})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer eng2.Close()

	value, found, err := eng2.Get([]byte("durable"))
	if err != nil || !found {
		t.Fatalf("get after reopen: found=%v err=%v", found, err)
	}
	if !bytes.Equal(value, []byte("value")) {
		t.Errorf("expected persisted value %q, got %q", "value", value)
	}
}

func testDestroyWipes(t *testing.T, factory engine.Factory) {
	eng, path := mustOpen(t, factory)
	mustPut(t, eng, "gone", "soon")

	if err := eng.Destroy(); err != nil {
		t.Fatalf("destroy failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected store directory to be removed after destroy, stat err=%v", err)
	}

	// A fresh store at the same path starts empty.
	eng2, err := factory(path, engine.OpenOptions{CreateIfMissing: true, KeepLogFileNum: 1})
	if err != nil {
		t.Fatalf("open after destroy failed: %v", err)
	}
	defer eng2.Close()

	keys, err := eng2.Keys(nil)
	if err != nil {
		t.Fatalf("keys after destroy failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected empty store after destroy, got keys %q", keys)
	}
}

func testOpenMissing(t *testing.T, factory engine.Factory) {
	path := filepath.Join(t.TempDir(), "missing")

	if _, err := factory(path, engine.OpenOptions{CreateIfMissing: false}); err == nil {
		t.Errorf("expected open with CreateIfMissing=false on a missing path to fail")
	}
}

func testInvalidOptions(t *testing.T, factory engine.Factory) {
	path := filepath.Join(t.TempDir(), "store")

	if _, err := factory(path, engine.OpenOptions{CreateIfMissing: true, KeepLogFileNum: -1}); err == nil {
		t.Errorf("expected open with negative keep_log_file_num to fail")
	}
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// RunEngineBenchmarks runs a small benchmark suite against an IEngine
// implementation.
func RunEngineBenchmarks(b *testing.B, name string, factory engine.Factory) {
	b.Run(name, func(b *testing.B) {
		path := filepath.Join(b.TempDir(), "bench")
		eng, err := factory(path, engine.OpenOptions{CreateIfMissing: true, KeepLogFileNum: 1})
		if err != nil {
			b.Fatalf("failed to open store: %v", err)
		}
		defer eng.Close()

		b.Run("Put", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				key := []byte(fmt.Sprintf("key-%d", i%1000))
				if err := eng.Put(key, []byte("value")); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run("Get", func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				key := []byte(fmt.Sprintf("key-%d", i%1000))
				if _, _, err := eng.Get(key); err != nil {
					b.Fatal(err)
				}
			}
		})

		b.Run("Keys", func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := eng.Keys([]byte("key-1")); err != nil {
					b.Fatal(err)
				}
			}
		})
	})
}
