package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeBufferSize = 100
	writeTimeout    = 5 * time.Second
)

// Connection wraps a gorilla connection. All writes go through a single
// writer goroutine; gorilla does not allow concurrent writers.
type Connection struct {
	conn        *websocket.Conn
	id          string
	writeCh     chan []byte
	connectedAt time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewConnection assigns a fresh connection id and starts the writer.
func NewConnection(conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:        conn,
		id:          uuid.NewString(),
		writeCh:     make(chan []byte, writeBufferSize),
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}

	go c.writeLoop()

	return c
}

func (c *Connection) writeLoop() {
	// a failed write kills the connection so WriteJSON callers stop queueing
	defer c.cancel()

	for {
		select {
		case data := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// ID returns the server-assigned connection id.
func (c *Connection) ID() string {
	return c.id
}

// ConnectedAt returns when the connection was accepted.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// Done is closed once the connection is closed or its writer failed.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// WriteJSON marshals v and queues it for the writer. It never blocks: a peer
// whose buffer is full is closed and ErrSlowConsumer returned.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ErrInvalidJSON
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
		_ = c.Close()
		return ErrSlowConsumer
	}
}

// Close stops the writer and closes the socket. Safe to call more than once.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}
