// Package engine defines the capability boundary between the host layer and
// the embedded storage engine. It specifies a small contract
// ({open, get, put, delete, iterate, destroy}) that concrete engines must
// satisfy, while abstracting the engine's internal data structures (log,
// memtable, compaction) away from the rest of the system.
//
// The package focuses on:
//   - A unified interface for single-key operations and ordered key iteration
//   - A Factory type for open-time dependency injection into the host layer
//   - An explicit open-time configuration surface (OpenOptions)
//   - A hard distinction between Close (release the session) and Destroy
//     (irreversible teardown of the on-disk data)
//
// Key Components:
//
//   - IEngine Interface: the contract all engine implementations must
//     satisfy. Lookups report "not found" as a valid outcome, iteration is
//     in ascending byte order, and prefix filtering operates on raw key
//     bytes.
//
//   - OpenOptions: the only options recognized at open time
//     (CreateIfMissing, KeepLogFileNum). Options are retained with the open
//     session since destroying a store requires the same options family.
//
//   - Factory: a function type used by the host layer to open new sessions
//     without depending on a concrete engine package.
//
// Related Packages:
//
// The pebble package (github.com/stashdb/stashdb/lib/engine/pebble) provides
// the production implementation over the Pebble LSM storage engine.
//
// The testing package (github.com/stashdb/stashdb/lib/engine/testing)
// provides a reusable conformance suite for IEngine implementations.
package engine
