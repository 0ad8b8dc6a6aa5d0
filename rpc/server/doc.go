// Package server implements the RPC server for the store host system.
// It provides the adapter that handles RPC requests against the store host,
// along with the core server implementation that manages request handling.
//
// The package focuses on:
//   - Server-side RPC request handling for all store host operations
//   - Adapter pattern to decouple application logic from RPC mechanisms
//   - Confining client-supplied store paths to a configured data directory
//
// Key Components:
//
//   - IRPCServerAdapter: Interface defining the contract for all server adapters,
//     with the Handle method that processes incoming requests against a host.IHost.
//
//   - NewHostServerAdapter: Factory function creating an adapter for store host
//     operations, translating RPC requests to host.IHost method calls and
//     awaiting their asynchronous results.
//
//   - NewRPCServer: Factory function creating a configured server with the specified
//     transport and serializer mechanisms.
//
// Usage Example:
//
//	// Create server configuration
//	config := common.ServerConfig{
//	  Endpoint: "0.0.0.0:8080",
//	  DataDir: "/var/lib/stashdb",
//	  TimeoutSecond: 5,
//	  LogLevel: "info",
//	}
//
//	// Create and start the server
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(config),
//	  serializer.NewBinarySerializer(),
//	)
//
//	// Start the server
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	The server implementation is thread-safe and can handle concurrent requests
//	across multiple connections. Each request is processed independently.
//	The Serve method is not thread-safe and should be called only once.
package server
