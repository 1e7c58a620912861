package interfaces

import "hintparty/pkg/types"

// EventRouter delivers outbound events and polices inbound traffic.
type EventRouter interface {
	// Deliver sends each event to its recipient, or to every connection when
	// the event is a broadcast. Delivery failures are logged, not returned.
	Deliver(events []types.Event)

	// Allow reports whether connID may submit another intent now.
	Allow(connID string) bool

	// Forget drops per-connection state once a connection is gone.
	Forget(connID string)
}
