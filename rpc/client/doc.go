// Package client implements the RPC client for the store host system.
// It provides an implementation of the IRemoteHost interface that
// communicates with a remote server via RPC.
//
// The package focuses on:
//   - Transparent RPC access to a remote store host
//   - Integration with the transport and serialization layers
//   - Error handling and conversion between RPC and domain errors
//
// Key Components:
//
//   - IRemoteHost: Client-side interface mirroring the store host operations
//     (connect, get_item, set_item, get_keys, remove_item, close).
//
//   - NewRPCHost: Factory function that creates a client implementing the
//     IRemoteHost interface. This client forwards all operations to the remote
//     server via the configured transport layer and rebuilds typed errors from
//     the error kind carried in responses.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:              []string{"localhost:5000"},
//	  TimeoutSecond:          5,
//	  RetryCount:             3,
//	  ConnectionsPerEndpoint: 1,
//	}
//
//	// Create a serializer
//	serializer := serializer.NewBinarySerializer()
//
//	// Create the host client
//	h, _ := client.NewRPCHost(config, tcp.NewTCPClientTransport(), serializer)
//
//	// Use the remote store
//	handle, _ := h.Connect("stores/users", engine.OpenOptions{CreateIfMissing: true})
//	h.SetItem(handle, "mykey", "myvalue")
//	value, found, _ := h.GetItem(handle, "mykey")
//
// Performance Considerations:
//
//   - For applications that frequently send large payloads, increasing ConnectionsPerEndpoint
//     can improve throughput by allowing parallel requests.
//
//   - For small messages, a single connection per endpoint is often more efficient due to
//     reduced connection overhead.
//
//   - The choice of serializer significantly affects performance. The binary serializer
//     provides the best performance and smallest payload size.
//
// Thread Safety:
//
//	The client implementation is thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
