package server

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stashdb/stashdb/lib/engine"
	"github.com/stashdb/stashdb/lib/host"
	"github.com/stashdb/stashdb/lib/kv"
	"github.com/stashdb/stashdb/rpc/common"
)

// NewHostServerAdapter creates an adapter that translates messages into store
// host operations. Store paths sent by clients are resolved below dataDir;
// an empty dataDir disables resolution and uses paths as sent.
func NewHostServerAdapter(dataDir string) IRPCServerAdapter {
	return &hostServerAdapterImpl{dataDir: dataDir}
}

type hostServerAdapterImpl struct {
	dataDir string
}

func (adapter *hostServerAdapterImpl) Handle(ctx context.Context, req *common.Message, h host.IHost) *common.Message {
	// Check for nil host
	if h == nil {
		return common.NewErrorResponse("handler: host is nil")
	}

	// Handle different message types
	switch req.MsgType {
	case common.MsgTConnect:
		path, err := adapter.resolveStorePath(req.Path)
		if err != nil {
			return common.NewConnectResponse(0, err)
		}
		opts := engine.OpenOptions{
			CreateIfMissing: req.CreateIfMissing,
			KeepLogFileNum:  int(req.KeepLogFileNum),
		}
		handle, err := h.Connect(ctx, path, opts).Await(ctx)
		return common.NewConnectResponse(handle, err)
	case common.MsgTGetItem:
		item, err := h.GetItem(ctx, kv.Handle(req.Handle), req.Key).Await(ctx)
		return common.NewGetItemResponse(item.Value, item.Found, err)
	case common.MsgTSetItem:
		_, err := h.SetItem(ctx, kv.Handle(req.Handle), req.Key, req.Value).Await(ctx)
		return common.NewSetItemResponse(err)
	case common.MsgTGetKeys:
		keys, err := h.GetKeys(ctx, kv.Handle(req.Handle), req.Prefix).Await(ctx)
		return common.NewGetKeysResponse(keys, err)
	case common.MsgTRemoveItem:
		_, err := h.RemoveItem(ctx, kv.Handle(req.Handle), req.Key).Await(ctx)
		return common.NewRemoveItemResponse(err)
	case common.MsgTClose:
		_, err := h.Close(ctx, kv.Handle(req.Handle)).Await(ctx)
		return common.NewCloseResponse(err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC HostAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}

// resolveStorePath confines a client-supplied store path to the data
// directory. Absolute paths and paths escaping the data directory are
// rejected.
func (adapter *hostServerAdapterImpl) resolveStorePath(path string) (string, error) {
	if adapter.dataDir == "" {
		return path, nil
	}

	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", kv.Errorf(kv.KindEngineOpen, "store path %q escapes the data directory", path)
	}

	return filepath.Join(adapter.dataDir, cleaned), nil
}
