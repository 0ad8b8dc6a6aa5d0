// Package testing provides a reusable conformance suite for engine.IEngine
// implementations. Engine packages run the suite from their own tests:
//
//	func Test(t *testing.T) {
//		enginetesting.RunEngineTests(t, "Pebble", pebble.Open)
//	}
//
// The suite covers lookup and overwrite semantics, deletes (including
// deleting absent keys), ascending iteration order, prefix filtering on raw
// key bytes, persistence across close/reopen and the destructive semantics
// of Destroy.
package testing
