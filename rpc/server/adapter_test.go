package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	enginepebble "github.com/stashdb/stashdb/lib/engine/pebble"
	"github.com/stashdb/stashdb/lib/host"
	"github.com/stashdb/stashdb/rpc/common"
)

// newTestAdapter creates a host backed by a temp directory plus the adapter
// confined to that directory
func newTestAdapter(t *testing.T) (IRPCServerAdapter, host.IHost, string) {
	t.Helper()
	dir := t.TempDir()

	h := host.New(enginepebble.Open, host.Config{MaxWorkers: 2})
	t.Cleanup(func() {
		if err := h.Shutdown(context.Background()); err != nil {
			t.Errorf("shutdown failed: %v", err)
		}
	})

	return NewHostServerAdapter(dir), h, dir
}

func TestAdapterFullSession(t *testing.T) {
	adapter, h, _ := newTestAdapter(t)
	ctx := context.Background()

	// Connect
	resp := adapter.Handle(ctx, common.NewConnectRequest("users", true, 0), h)
	if resp.Err != "" {
		t.Fatalf("connect failed: %s", resp.Err)
	}
	if resp.Handle != 0 {
		t.Fatalf("expected first handle 0, got %d", resp.Handle)
	}

	// Set
	resp = adapter.Handle(ctx, common.NewSetItemRequest(0, "alpha", "1"), h)
	if resp.Err != "" {
		t.Fatalf("set failed: %s", resp.Err)
	}

	// Get
	resp = adapter.Handle(ctx, common.NewGetItemRequest(0, "alpha"), h)
	if resp.Err != "" || !resp.Found || resp.Value != "1" {
		t.Fatalf("get returned (%q, %v, %s)", resp.Value, resp.Found, resp.Err)
	}

	// Get missing key
	resp = adapter.Handle(ctx, common.NewGetItemRequest(0, "beta"), h)
	if resp.Err != "" || resp.Found {
		t.Fatalf("expected not found, got (%q, %v, %s)", resp.Value, resp.Found, resp.Err)
	}

	// Keys
	resp = adapter.Handle(ctx, common.NewSetItemRequest(0, "beta", "2"), h)
	if resp.Err != "" {
		t.Fatalf("set failed: %s", resp.Err)
	}
	resp = adapter.Handle(ctx, common.NewGetKeysRequest(0, ""), h)
	if resp.Err != "" || len(resp.Keys) != 2 || resp.Keys[0] != "alpha" || resp.Keys[1] != "beta" {
		t.Fatalf("unexpected keys %v (err %s)", resp.Keys, resp.Err)
	}

	// Remove
	resp = adapter.Handle(ctx, common.NewRemoveItemRequest(0, "alpha"), h)
	if resp.Err != "" {
		t.Fatalf("remove failed: %s", resp.Err)
	}
	resp = adapter.Handle(ctx, common.NewGetItemRequest(0, "alpha"), h)
	if resp.Found {
		t.Fatalf("key still present after remove")
	}

	// Close
	resp = adapter.Handle(ctx, common.NewCloseRequest(0), h)
	if resp.Err != "" {
		t.Fatalf("close failed: %s", resp.Err)
	}

	// Operations on the closed handle report UnknownHandle
	resp = adapter.Handle(ctx, common.NewGetItemRequest(0, "alpha"), h)
	if resp.Err == "" || resp.Kind != "UnknownHandle" {
		t.Fatalf("expected UnknownHandle, got kind %q err %q", resp.Kind, resp.Err)
	}
}

func TestAdapterUnknownHandleKindOnWire(t *testing.T) {
	adapter, h, _ := newTestAdapter(t)

	resp := adapter.Handle(context.Background(), common.NewSetItemRequest(999, "k", "v"), h)
	if resp.Err == "" {
		t.Fatal("expected an error for a bogus handle")
	}
	if resp.Kind != "UnknownHandle" {
		t.Fatalf("expected kind UnknownHandle, got %q", resp.Kind)
	}
}

func TestAdapterConnectMissingStore(t *testing.T) {
	adapter, h, _ := newTestAdapter(t)

	resp := adapter.Handle(context.Background(), common.NewConnectRequest("absent", false, 0), h)
	if resp.Err == "" {
		t.Fatal("expected an error connecting to a missing store without create_if_missing")
	}
	if resp.Kind != "EngineOpenFailure" {
		t.Fatalf("expected kind EngineOpenFailure, got %q", resp.Kind)
	}
}

func TestAdapterRejectsEscapingPaths(t *testing.T) {
	adapter, h, dir := newTestAdapter(t)
	ctx := context.Background()

	for _, path := range []string{"/etc/passwd", "../outside", "a/../../outside"} {
		resp := adapter.Handle(ctx, common.NewConnectRequest(path, true, 0), h)
		if resp.Err == "" {
			t.Errorf("path %q was not rejected", path)
		}
		if resp.Kind != "EngineOpenFailure" {
			t.Errorf("path %q: expected kind EngineOpenFailure, got %q", path, resp.Kind)
		}
	}

	// A nested relative path is fine and lands below the data directory
	resp := adapter.Handle(ctx, common.NewConnectRequest("nested/store", true, 0), h)
	if resp.Err != "" {
		t.Fatalf("nested path rejected: %s", resp.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "nested", "store")); err != nil {
		t.Fatalf("store directory not created below data dir: %v", err)
	}
}

func TestAdapterUnsupportedMessageType(t *testing.T) {
	adapter, h, _ := newTestAdapter(t)

	resp := adapter.Handle(context.Background(), &common.Message{MsgType: common.MsgTUnknown}, h)
	if resp.MsgType != common.MsgTError || resp.Err == "" {
		t.Fatalf("expected an error response, got %+v", resp)
	}
}
