// Package pebble implements the engine.IEngine interface on top of the
// Pebble LSM storage engine (github.com/cockroachdb/pebble).
//
// Each open session owns one on-disk directory in Pebble's format. Writes
// are synced to the write-ahead log before they are acknowledged, so an
// acknowledged Put or Delete survives a process crash. Key iteration uses
// iterator bounds for prefix scans, which seeks directly to the prefix
// instead of scanning the whole key space.
//
// Destroy closes the session and removes the backing directory; after a
// Destroy the data is gone and the path can be reused for a fresh store.
package pebble
