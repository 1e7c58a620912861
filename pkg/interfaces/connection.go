package interfaces

// Connection is one client transport endpoint.
type Connection interface {
	// ID is the server-assigned connection id. It changes on every reconnect.
	ID() string

	// WriteJSON queues v for delivery. Safe for concurrent use.
	WriteJSON(v interface{}) error

	// Close closes the connection and releases its goroutines.
	Close() error
}
