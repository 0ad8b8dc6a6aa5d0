package client

import (
	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/kv"
	"github.com/stashdb/stashdb/rpc/common"
	"github.com/stashdb/stashdb/rpc/serializer"
	"github.com/stashdb/stashdb/rpc/transport"
)

// IRemoteHost is the client-side view of a remote store host. Each method
// maps to one host operation; errors carry the same kinds the host itself
// reports.
type IRemoteHost interface {
	// Connect opens or creates the store at path on the server and returns
	// its handle
	Connect(path string, opts engine.OpenOptions) (kv.Handle, error)
	// GetItem looks up a single key
	GetItem(handle kv.Handle, key string) (value string, found bool, err error)
	// SetItem writes a key-value pair
	SetItem(handle kv.Handle, key, value string) error
	// GetKeys lists keys in ascending byte order, optionally filtered by prefix
	GetKeys(handle kv.Handle, prefix string) ([]string, error)
	// RemoveItem deletes a key-value pair
	RemoveItem(handle kv.Handle, key string) error
	// Close destroys the store behind the handle and invalidates it
	Close(handle kv.Handle) error
	// Disconnect closes the underlying transport
	Disconnect() error
}

// NewRPCHost creates a new RPC host client
// The function takes a config, a transport and a serializer as parameters
// It returns an IRemoteHost and an error
func NewRPCHost(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (IRemoteHost, error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC host client
	h := rpcHost{
		rpcClientAdapter{
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC host client
	return &h, nil
}

type rpcHost struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see client.IRemoteHost)
// --------------------------------------------------------------------------

func (i *rpcHost) Connect(path string, opts engine.OpenOptions) (kv.Handle, error) {
	req := common.NewConnectRequest(path, opts.CreateIfMissing, uint32(opts.KeepLogFileNum))
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return kv.Handle(resp.Handle), nil
}

func (i *rpcHost) GetItem(handle kv.Handle, key string) (value string, found bool, err error) {
	req := common.NewGetItemRequest(handle, key)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return "", false, err
	}
	return resp.Value, resp.Found, nil
}

func (i *rpcHost) SetItem(handle kv.Handle, key, value string) (err error) {
	req := common.NewSetItemRequest(handle, key, value)
	_, err = invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcHost) GetKeys(handle kv.Handle, prefix string) ([]string, error) {
	req := common.NewGetKeysRequest(handle, prefix)
	resp, err := invokeRPCRequest(req, i.transport, i.serializer)
	if err != nil {
		return nil, err
	}
	if resp.Keys == nil {
		return []string{}, nil
	}
	return resp.Keys, nil
}

func (i *rpcHost) RemoveItem(handle kv.Handle, key string) (err error) {
	req := common.NewRemoveItemRequest(handle, key)
	_, err = invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcHost) Close(handle kv.Handle) (err error) {
	req := common.NewCloseRequest(handle)
	_, err = invokeRPCRequest(req, i.transport, i.serializer)
	return err
}

func (i *rpcHost) Disconnect() error {
	return i.transport.Close()
}
