package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"hintparty/pkg/types"
)

// IntentSink accepts decoded client intents. The hub implements it.
type IntentSink interface {
	Submit(intent types.Intent) error
}

// HistorySource supplies the chat replay sent to every new connection.
type HistorySource interface {
	Recent(n int) []types.ChatMessage
}

// HandlerConfig tunes heartbeats and limits.
type HandlerConfig struct {
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	HistorySize    int
	AllowedOrigins []string
}

// DefaultHandlerConfig returns the standard heartbeat settings.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 4096,
		HistorySize:    20,
	}
}

// Handler upgrades HTTP requests and pumps frames between sockets and the hub.
type Handler struct {
	registry *Registry
	sink     IntentSink
	history  HistorySource
	cfg      HandlerConfig
	upgrader websocket.Upgrader
}

// NewHandler creates a handler. history may be nil.
func NewHandler(registry *Registry, sink IntentSink, history HistorySource, cfg HandlerConfig) *Handler {
	h := &Handler{
		registry: registry,
		sink:     sink,
		history:  history,
		cfg:      cfg,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the request, registers the connection and starts
// its read pump. Nickname and game joins happen over the socket afterwards.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "websocket").Msg("Upgrade failed")
		return
	}

	wsConn := NewConnection(conn)
	if err := h.registry.RegisterConnection(wsConn); err != nil {
		log.Error().Err(err).Str("module", "websocket").Msg("Failed to register connection")
		_ = wsConn.Close()
		return
	}

	log.Info().Str("module", "websocket").Str("conn_id", wsConn.ID()).Str("remote", r.RemoteAddr).Msg("Connection opened")

	h.sendChatHistory(wsConn)

	go h.handleConnection(wsConn)
}

func (h *Handler) sendChatHistory(conn *Connection) {
	if h.history == nil {
		return
	}
	event := types.Event{
		To:        conn.ID(),
		Type:      types.EventChatHistory,
		Payload:   h.history.Recent(h.cfg.HistorySize),
		Timestamp: time.Now(),
	}
	if err := conn.WriteJSON(event); err != nil {
		log.Warn().Err(err).Str("module", "websocket").Str("conn_id", conn.ID()).Msg("Failed to send chat history")
	}
}

// handleConnection runs the heartbeat and read pump until the socket closes,
// then reports the disconnect to the hub.
func (h *Handler) handleConnection(conn *Connection) {
	defer func() {
		if err := h.sink.Submit(types.Intent{
			ConnID:     conn.ID(),
			Type:       types.IntentDisconnected,
			ReceivedAt: time.Now(),
		}); err != nil {
			log.Warn().Err(err).Str("module", "websocket").Str("conn_id", conn.ID()).Msg("Failed to report disconnect")
		}
		h.registry.UnregisterConnection(conn)
		_ = conn.Close()
		log.Info().Str("module", "websocket").Str("conn_id", conn.ID()).Msg("Connection closed")
	}()

	if h.cfg.MaxMessageSize > 0 {
		conn.conn.SetReadLimit(h.cfg.MaxMessageSize)
	}
	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	go h.heartbeat(conn)

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("module", "websocket").Str("conn_id", conn.ID()).Msg("Read failed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		intent, err := decodeIntent(conn.ID(), data)
		if err != nil {
			h.sendError(conn, "bad_request", err)
			continue
		}
		if err := h.sink.Submit(intent); err != nil {
			h.sendError(conn, "rejected", err)
		}
	}
}

func (h *Handler) heartbeat(conn *Connection) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		case <-conn.Done():
			return
		}
	}
}

func (h *Handler) sendError(conn *Connection, code string, err error) {
	event := types.Event{
		To:        conn.ID(),
		Type:      types.EventError,
		Payload:   types.ErrorPayload{Code: code, Message: err.Error()},
		Timestamp: time.Now(),
	}
	if werr := conn.WriteJSON(event); werr != nil {
		log.Debug().Err(werr).Str("module", "websocket").Str("conn_id", conn.ID()).Msg("Failed to send error")
	}
}

// decodeIntent parses and validates one client frame.
func decodeIntent(connID string, data []byte) (types.Intent, error) {
	var env types.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return types.Intent{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if err := env.Validate(); err != nil {
		return types.Intent{}, err
	}
	return types.Intent{
		ConnID:     connID,
		Type:       env.Type,
		Data:       env.Data,
		ReceivedAt: time.Now(),
	}, nil
}
