package engine

// --------------------------------------------------------------------------
// Open Options
// --------------------------------------------------------------------------

// OpenOptions is the configuration surface recognized at open time.
// The options a store was opened with must be retained for the lifetime of
// the session: destroying a store requires the same options family.
type OpenOptions struct {
	// CreateIfMissing controls whether opening a path without an existing
	// store creates a new one. If false, the open fails instead.
	CreateIfMissing bool `json:"create_if_missing"`
	// KeepLogFileNum bounds the number of retained write-ahead log segments.
	// A negative value is an invalid option and fails the open.
	KeepLogFileNum int `json:"keep_log_file_num"`
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// IEngine is the capability contract for one open storage engine session.
// It provides atomic single-key get/put/delete and ordered key iteration.
// Implementations own exactly one on-disk directory per session.
//
// All methods may be called concurrently. A "not found" lookup is a valid
// outcome, never an error. Errors returned by IEngine are plain errors; the
// caller is responsible for classifying them (see the kv package).
type IEngine interface {
	// Get performs an exact-key lookup. The boolean return value indicates
	// whether a value for the key was found. The returned slice is owned by
	// the caller.
	Get(key []byte) (value []byte, found bool, err error)

	// Put inserts or updates a key-value pair, overwriting any existing
	// value. A failed put must not leave a partial value visible.
	Put(key, value []byte) error

	// Delete removes a key-value pair. Deleting an absent key is not an
	// error.
	Delete(key []byte) error

	// Keys returns all keys currently visible, in ascending byte order,
	// filtered to those whose raw bytes begin with prefix. A nil or empty
	// prefix returns every key.
	Keys(prefix []byte) ([][]byte, error)

	// Close releases the session without touching the on-disk data. The
	// store can be opened again later at the same path.
	Close() error

	// Destroy tears down the session and irreversibly removes the on-disk
	// data. A destroy error does not imply the data survived.
	Destroy() error

	// Path returns the filesystem location backing the session.
	Path() string
}

// Factory opens a new engine session at path with the given options.
// This is used to abstract the concrete engine from the host layer.
type Factory func(path string, opts OpenOptions) (IEngine, error)
