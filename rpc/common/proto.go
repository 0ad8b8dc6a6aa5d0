package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stashdb/stashdb/lib/kv"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Handle          uint32 `json:"handle,omitempty"`            // Used for: all store operations (request), Connect (response)
	Path            string `json:"path,omitempty"`              // Used for: Connect requests
	CreateIfMissing bool   `json:"create_if_missing,omitempty"` // Used for: Connect requests
	KeepLogFileNum  uint32 `json:"keep_log_file_num,omitempty"` // Used for: Connect requests
	Key             string `json:"key,omitempty"`               // Used for: GetItem, SetItem, RemoveItem
	Value           string `json:"value,omitempty"`             // Used for: SetItem (request), GetItem (response)
	Prefix          string `json:"prefix,omitempty"`            // Used for: GetKeys requests

	// Response only fields
	Found bool     `json:"found,omitempty"` // Used for: GetItem responses
	Keys  []string `json:"keys,omitempty"`  // Used for: GetKeys responses
	Err   string   `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message
	Kind  string   `json:"kind,omitempty"`  // The error kind, so clients can rebuild typed errors
}

// setError stores an error's message and kind in the response fields. For
// typed errors the bare message travels on the wire so clients can rebuild
// the same error without double-wrapping.
func (m *Message) setError(err error) *Message {
	if err != nil {
		var e *kv.Error
		if errors.As(err, &e) {
			m.Err = e.Msg
			m.Kind = e.Kind.String()
		} else {
			m.Err = err.Error()
		}
	}
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewConnectRequest creates a new Connect request
func NewConnectRequest(path string, createIfMissing bool, keepLogFileNum uint32) *Message {
	return &Message{
		MsgType:         MsgTConnect,
		Path:            path,
		CreateIfMissing: createIfMissing,
		KeepLogFileNum:  keepLogFileNum,
	}
}

// NewConnectResponse creates a new Connect response
func NewConnectResponse(handle kv.Handle, err error) *Message {
	msg := &Message{
		MsgType: MsgTConnect,
		Handle:  uint32(handle),
	}
	return msg.setError(err)
}

// NewGetItemRequest creates a new GetItem request
func NewGetItemRequest(handle kv.Handle, key string) *Message {
	return &Message{
		MsgType: MsgTGetItem,
		Handle:  uint32(handle),
		Key:     key,
	}
}

// NewGetItemResponse creates a new GetItem response
func NewGetItemResponse(value string, found bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTGetItem,
		Value:   value,
		Found:   found,
	}
	return msg.setError(err)
}

// NewSetItemRequest creates a new SetItem request
func NewSetItemRequest(handle kv.Handle, key, value string) *Message {
	return &Message{
		MsgType: MsgTSetItem,
		Handle:  uint32(handle),
		Key:     key,
		Value:   value,
	}
}

// NewSetItemResponse creates a new SetItem response
func NewSetItemResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTSetItem,
	}
	return msg.setError(err)
}

// NewGetKeysRequest creates a new GetKeys request
func NewGetKeysRequest(handle kv.Handle, prefix string) *Message {
	return &Message{
		MsgType: MsgTGetKeys,
		Handle:  uint32(handle),
		Prefix:  prefix,
	}
}

// NewGetKeysResponse creates a new GetKeys response
func NewGetKeysResponse(keys []string, err error) *Message {
	msg := &Message{
		MsgType: MsgTGetKeys,
		Keys:    keys,
	}
	return msg.setError(err)
}

// NewRemoveItemRequest creates a new RemoveItem request
func NewRemoveItemRequest(handle kv.Handle, key string) *Message {
	return &Message{
		MsgType: MsgTRemoveItem,
		Handle:  uint32(handle),
		Key:     key,
	}
}

// NewRemoveItemResponse creates a new RemoveItem response
func NewRemoveItemResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTRemoveItem,
	}
	return msg.setError(err)
}

// NewCloseRequest creates a new Close request
func NewCloseRequest(handle kv.Handle) *Message {
	return &Message{
		MsgType: MsgTClose,
		Handle:  uint32(handle),
	}
}

// NewCloseResponse creates a new Close response
func NewCloseResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTClose,
	}
	return msg.setError(err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTConnect:
		return "connect"
	case MsgTGetItem:
		return "get_item"
	case MsgTSetItem:
		return "set_item"
	case MsgTGetKeys:
		return "get_keys"
	case MsgTRemoveItem:
		return "remove_item"
	case MsgTClose:
		return "close"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "connect":
		*t = MsgTConnect
	case "get_item":
		*t = MsgTGetItem
	case "set_item":
		*t = MsgTSetItem
	case "get_keys":
		*t = MsgTGetKeys
	case "remove_item":
		*t = MsgTRemoveItem
	case "close":
		*t = MsgTClose
	case "error":
		*t = MsgTError
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTError               // Indicates an error occurred

	// IHost operations

	MsgTConnect    // Open a store and issue a handle
	MsgTGetItem    // Look up a single key
	MsgTSetItem    // Write a key-value pair
	MsgTGetKeys    // Ordered, optionally prefix-filtered key listing
	MsgTRemoveItem // Delete a key-value pair
	MsgTClose      // Destroy a store and invalidate its handle
)
