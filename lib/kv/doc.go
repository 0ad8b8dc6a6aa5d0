// Package kv holds the shared core types of the store host: opaque handles,
// the typed error model, the Instance record for one open engine session,
// and the Registry that maps live handles to instances.
//
// The package focuses on:
//   - Handle: an opaque uint32 identifying one open instance, unique and
//     monotonically issued for the lifetime of the process
//   - Error/Kind: the recoverable, typed error model shared by every
//     operation (EngineOpenFailure, UnknownHandle, EngineIoFailure,
//     DecodeFailure)
//   - Instance: one open engine session plus the open options and path
//     needed to destroy it
//   - Registry: the concurrent handle table with never-reused issuance
//
// Registry lookups resolve a handle to an instance reference atomically;
// the engine I/O that follows runs against that independent reference, so
// long operations (including full key scans) on one store never block
// operations on another.
package kv
