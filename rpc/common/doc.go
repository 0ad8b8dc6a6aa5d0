// Package common provides core data structures and utilities shared across
// the RPC layer of the store host. It defines fundamental types,
// configuration structures, and protocol elements used by other packages.
//
// The package focuses on:
//   - Message protocol definition for client/server communication
//   - Configuration structures for client and server components
//   - Named logger setup shared by the RPC packages
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication between components,
//     with a flexible structure that adapts to different operation types.
//     Includes factory methods for creating various request and response messages.
//
//   - MessageType: Enumeration defining all supported operation types, covering
//     the store host operations (connect, get_item, set_item, get_keys,
//     remove_item, close) and control messages.
//
//   - ServerConfig: Configuration for the server process, including the listen
//     endpoint, the data directory store paths resolve against, worker limits,
//     timeouts, and transport tuning.
//
//   - ClientConfig: Configuration for client components, controlling connection
//     parameters, timeouts, and retry behavior.
//
//   - Logger: Logrus-based named loggers providing consistent formatting
//     across the application.
package common
