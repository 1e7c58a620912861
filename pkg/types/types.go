package types

import (
	"time"
)

// Inbound intent names, as sent by clients in Envelope.Type.
const (
	IntentJoin         = "join-game"
	IntentToggleReady  = "toggle-ready"
	IntentStartGame    = "start-game"
	IntentSubmitHint   = "submit-hint"
	IntentMakeGuess    = "make-guess"
	IntentRestartGame  = "restart-game"
	IntentGetAnswer    = "get-answer"
	IntentChatMessage  = "chat-message"
	IntentDisconnected = "disconnected" // transport-generated, never accepted from clients
)

// Outbound event names.
const (
	EventJoinSuccess        = "join-success"
	EventJoinError          = "join-error"
	EventGameStateUpdate    = "game-state-update"
	EventGameStarted        = "game-started"
	EventStartGameError     = "start-game-error"
	EventHintAdded          = "hint-added"
	EventHintError          = "hint-error"
	EventGuessResult        = "guess-result"
	EventGuessError         = "guess-error"
	EventNextRound          = "next-round"
	EventGameEnded          = "game-ended"
	EventGameRestarted      = "game-restarted"
	EventAnswerForHint      = "answer-for-hint"
	EventAnswerError        = "answer-error"
	EventPlayerDisconnected = "player-disconnected"
	EventPlayerReconnected  = "player-reconnected"
	EventChatMessage        = "chat-message"
	EventChatHistory        = "chat-history"
	EventError              = "error"
)

// Chat message kinds.
const (
	ChatKindChat   = "chat"
	ChatKindSystem = "system"
	ChatKindGame   = "game"
)

// Envelope is the inbound websocket frame.
type Envelope struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// Intent is an Envelope bound to the connection it arrived on.
type Intent struct {
	ConnID     string
	Type       string
	Data       string
	ReceivedAt time.Time
}

// Event is an outbound message. An empty To broadcasts to every connection;
// otherwise only the named connection receives it.
type Event struct {
	To        string    `json:"-"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsBroadcast reports whether the event targets every connection.
func (e Event) IsBroadcast() bool {
	return e.To == ""
}

// ErrorPayload is the body of every rejection event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatMessage is one entry of the chat log.
type ChatMessage struct {
	ID         string    `json:"id" db:"id"`
	SenderID   string    `json:"playerId" db:"sender_id"`
	SenderName string    `json:"playerName" db:"sender_name"`
	Text       string    `json:"message" db:"text"`
	Kind       string    `json:"type" db:"kind"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
}

// Standing is one player's final position in a finished game.
type Standing struct {
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// GameResult summarises a finished game for the audit store.
type GameResult struct {
	ID         string     `json:"id" db:"id"`
	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt time.Time  `json:"finished_at" db:"finished_at"`
	Turns      int        `json:"turns" db:"turns"`
	Standings  []Standing `json:"standings" db:"standings"`
}
