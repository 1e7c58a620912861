package websocket

import (
	"sync"

	"hintparty/pkg/interfaces"
)

// Registry tracks open connections by connection id.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		connections: make(map[string]*Connection),
	}
}

// RegisterConnection adds conn. Connection ids are unique, so a clash means
// the same connection was registered twice.
func (r *Registry) RegisterConnection(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.connections[conn.ID()]; exists {
		return ErrDuplicateConnection
	}
	r.connections[conn.ID()] = conn
	return nil
}

// UnregisterConnection removes conn if it is the instance registered under
// its id. Idempotent.
func (r *Registry) UnregisterConnection(conn *Connection) {
	if conn == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if registered, exists := r.connections[conn.ID()]; exists && registered == conn {
		delete(r.connections, conn.ID())
	}
}

// GetConnection looks up a connection by id.
func (r *Registry) GetConnection(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.connections[id]
	return conn, exists
}

// Connections returns a snapshot of every open connection.
func (r *Registry) Connections() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		out = append(out, conn)
	}
	return out
}

// Lookup is GetConnection behind the interfaces.Connection boundary.
func (r *Registry) Lookup(id string) (interfaces.Connection, bool) {
	conn, exists := r.GetConnection(id)
	if !exists {
		return nil, false
	}
	return conn, true
}

// All is Connections behind the interfaces.Connection boundary.
func (r *Registry) All() []interfaces.Connection {
	conns := r.Connections()
	out := make([]interfaces.Connection, len(conns))
	for i, conn := range conns {
		out[i] = conn
	}
	return out
}

// CloseAll closes and forgets every connection. Used at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.connections
	r.connections = make(map[string]*Connection)
	r.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// GetStats returns registry statistics for the health endpoint.
func (r *Registry) GetStats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.connections),
	}
}
