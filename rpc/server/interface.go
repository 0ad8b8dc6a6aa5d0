package server

import (
	"context"

	"github.com/stashdb/stashdb/lib/host"
	"github.com/stashdb/stashdb/rpc/common"
)

// IRPCServerAdapter is the interface for all RPC server adapters
// It is responsible for handling requests and responses
type IRPCServerAdapter interface {
	// Handle handles a request and returns a response
	// It takes a context, a Message and a store host as parameters.
	// It returns a Message as a response
	// If an error occurs, it should be set in the response
	Handle(ctx context.Context, req *common.Message, h host.IHost) (resp *common.Message)
}
