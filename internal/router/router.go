// Package router delivers session events to websocket connections and
// throttles inbound intents per connection.
package router

import (
	"github.com/rs/zerolog/log"

	"hintparty/pkg/interfaces"
	"hintparty/pkg/types"
)

// ConnectionLookup resolves connection ids. websocket.Registry implements it.
type ConnectionLookup interface {
	Lookup(id string) (interfaces.Connection, bool)
	All() []interfaces.Connection
}

// Router implements interfaces.EventRouter.
type Router struct {
	conns       ConnectionLookup
	rateLimiter *RateLimiter
}

// NewRouter creates a router over conns.
func NewRouter(conns ConnectionLookup, limiter *RateLimiter) *Router {
	if limiter == nil {
		limiter = NewRateLimiter(DefaultRateLimit())
	}
	return &Router{
		conns:       conns,
		rateLimiter: limiter,
	}
}

// Deliver writes each event to its recipient, or to every connection for
// broadcasts. A failed write to one connection does not stop the others.
func (r *Router) Deliver(events []types.Event) {
	for _, event := range events {
		if event.IsBroadcast() {
			for _, conn := range r.conns.All() {
				r.write(conn, event)
			}
			continue
		}

		conn, ok := r.conns.Lookup(event.To)
		if !ok {
			log.Debug().Str("module", "router").Str("conn_id", event.To).Str("event", event.Type).Msg("Recipient gone, dropping event")
			continue
		}
		r.write(conn, event)
	}
}

func (r *Router) write(conn interfaces.Connection, event types.Event) {
	if err := conn.WriteJSON(event); err != nil {
		log.Warn().Err(err).Str("module", "router").Str("conn_id", conn.ID()).Str("event", event.Type).Msg("Failed to deliver event")
	}
}

// Allow reports whether connID is within its intent rate.
func (r *Router) Allow(connID string) bool {
	return r.rateLimiter.Allow(connID)
}

// Forget drops the rate limiter state of a closed connection.
func (r *Router) Forget(connID string) {
	r.rateLimiter.Forget(connID)
}

// RateLimiter exposes the limiter for periodic cleanup.
func (r *Router) RateLimiter() *RateLimiter {
	return r.rateLimiter
}
