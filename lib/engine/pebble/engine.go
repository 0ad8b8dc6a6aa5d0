package pebble

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/sirupsen/logrus"
	"github.com/stashdb/stashdb/lib/engine"
)

// engineImpl implements engine.IEngine on top of a Pebble LSM store.
// One engineImpl owns exactly one open pebble.DB and its backing directory.
type engineImpl struct {
	db   *pebble.DB
	opts engine.OpenOptions
	path string
}

// Open opens (or creates, depending on opts) a Pebble store at path.
// It satisfies the engine.Factory signature.
//
// Option mapping:
//   - CreateIfMissing=false is mapped to pebble's ErrorIfNotExists, so
//     opening a path without an existing store fails instead of creating one.
//   - KeepLogFileNum is validated here and retained with the session. Pebble
//     recycles its write-ahead log segments internally, so the bound is not
//     applied per segment.
func Open(path string, opts engine.OpenOptions) (engine.IEngine, error) {
	if opts.KeepLogFileNum < 0 {
		return nil, fmt.Errorf("invalid option keep_log_file_num=%d: must be non-negative", opts.KeepLogFileNum)
	}

	pOpts := &pebble.Options{
		ErrorIfNotExists: !opts.CreateIfMissing,
		Logger:           logrus.WithField("component", "engine/pebble"),
	}

	db, err := pebble.Open(path, pOpts)
	if err != nil {
		return nil, err
	}

	return &engineImpl{
		db:   db,
		opts: opts,
		path: path,
	}, nil
}

// Compile-time check that Open can be used as a Factory.
var _ engine.Factory = Open

// --------------------------------------------------------------------------
// Interface Methods (docu see engine/interface.go)
// --------------------------------------------------------------------------

func (e *engineImpl) Get(key []byte) ([]byte, bool, error) {
	val, closer, err := e.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// The returned slice is only valid until closer.Close(), so copy it out.
	out := append([]byte(nil), val...)
	if err := closer.Close(); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (e *engineImpl) Put(key, value []byte) error {
	return e.db.Set(key, value, pebble.Sync)
}

func (e *engineImpl) Delete(key []byte) error {
	// Pebble treats deleting an absent key as a successful no-op, which is
	// exactly the contract of IEngine.Delete.
	return e.db.Delete(key, pebble.Sync)
}

func (e *engineImpl) Keys(prefix []byte) ([][]byte, error) {
	// Iterator bounds make this a direct prefix seek instead of a full
	// forward scan. The result set and order are identical to a full scan
	// with per-key filtering.
	iterOpts := &pebble.IterOptions{}
	if len(prefix) > 0 {
		iterOpts.LowerBound = prefix
		iterOpts.UpperBound = prefixUpperBound(prefix)
	}

	iter, err := e.db.NewIter(iterOpts)
	if err != nil {
		return nil, err
	}

	var keys [][]byte
	for valid := iter.First(); valid; valid = iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}

	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return nil, err
	}
	return keys, iter.Close()
}

func (e *engineImpl) Close() error {
	return e.db.Close()
}

func (e *engineImpl) Destroy() error {
	// The directory is removed even if the close fails: a destroy must not
	// leave data behind because of a dangling session.
	closeErr := e.db.Close()
	if err := os.RemoveAll(e.path); err != nil {
		return err
	}
	return closeErr
}

func (e *engineImpl) Path() string {
	return e.path
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// prefixUpperBound returns the smallest key greater than every key with the
// given prefix, for use as an exclusive iterator upper bound. It returns nil
// (no upper bound) if the prefix consists solely of 0xff bytes.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
