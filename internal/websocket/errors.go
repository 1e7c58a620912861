package websocket

import "errors"

// Connection-related errors
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrSlowConsumer     = errors.New("write buffer full, connection dropped")
	ErrInvalidJSON      = errors.New("invalid JSON data")
)

// Registry-related errors
var (
	ErrNilConnection       = errors.New("connection cannot be nil")
	ErrDuplicateConnection = errors.New("connection id already registered")
)

// Handler-related errors
var (
	ErrMalformedEnvelope = errors.New("malformed message envelope")
)
