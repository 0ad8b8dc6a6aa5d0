package kv

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Handle Type
// --------------------------------------------------------------------------

// Handle identifies one open store instance. Handles are opaque: callers may
// rely only on uniqueness and monotonic issuance. A handle is never reused,
// even after the instance it referred to has been closed.
type Handle uint32

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the typed error returned by every operation in this system. It
// wraps an error kind (of type Kind) and a human-readable message. All
// failure conditions are recoverable values; none terminate the process.
type Error struct {
	Kind Kind   // The error kind
	Msg  string // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("KVHostError (kind %s): %s", e.Kind, e.Msg)
}

// NewError creates a new Error with the given kind and message.
func NewError(kind Kind, msg string) *Error {
	return &Error{
		Kind: kind,
		Msg:  msg,
	}
}

// Errorf creates a new Error with the given kind and a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return NewError(kind, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind from an error. It returns KindUnknown for nil
// errors and for errors that are not of type *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

type Kind uint8

const (
	KindUnknown       Kind = iota // 0: Not a typed error of this system.
	KindEngineOpen                // 1: The engine could not open the path.
	KindUnknownHandle             // 2: Operation against a handle not present in the registry.
	KindEngineIO                  // 3: Read/write/delete/scan error surfaced by an open engine.
	KindDecode                    // 4: Stored bytes are not valid text in the promised encoding.
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindEngineOpen:
		return "EngineOpenFailure"
	case KindUnknownHandle:
		return "UnknownHandle"
	case KindEngineIO:
		return "EngineIoFailure"
	case KindDecode:
		return "DecodeFailure"
	default:
		return "Unknown"
	}
}

// KindFromString converts the wire representation of a Kind back to its
// value. Unrecognized strings map to KindUnknown.
func KindFromString(s string) Kind {
	switch s {
	case "EngineOpenFailure":
		return KindEngineOpen
	case "UnknownHandle":
		return KindUnknownHandle
	case "EngineIoFailure":
		return KindEngineIO
	case "DecodeFailure":
		return KindDecode
	default:
		return KindUnknown
	}
}
