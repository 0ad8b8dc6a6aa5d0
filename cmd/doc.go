// Package cmd implements the command-line interface for the stashdb
// key-value store host. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for store operations (open, get, set, keys, del, destroy)
//   - serve: Commands for starting and configuring the stashdb server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See stashdb -help for a list of all commands.
package cmd
