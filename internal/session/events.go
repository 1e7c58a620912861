package session

import "hintparty/pkg/types"

// Payloads of the events the session emits.

type JoinPayload struct {
	Player       Player `json:"player"`
	IsRoomLeader bool   `json:"isRoomLeader"`
	Reconnected  bool   `json:"reconnected"`
}

type HintPayload struct {
	Hint      Hint     `json:"hint"`
	GameState Snapshot `json:"gameState"`
}

type GuessPayload struct {
	GuessOutcome
	Message   string   `json:"message"`
	GameState Snapshot `json:"gameState"`
}

type AnswerPayload struct {
	Answer   string `json:"answer"`
	Category string `json:"category"`
}

type DisconnectPayload struct {
	PlayerID      string   `json:"playerId"`
	Nickname      string   `json:"nickname"`
	Reconnectable bool     `json:"reconnectable"`
	GraceSeconds  int      `json:"graceSeconds,omitempty"`
	GameState     Snapshot `json:"gameState"`
}

type ReconnectPayload struct {
	PlayerID   string   `json:"playerId"`
	PreviousID string   `json:"previousId"`
	Nickname   string   `json:"nickname"`
	GameState  Snapshot `json:"gameState"`
}

type GameEndedPayload struct {
	Standings []types.Standing `json:"standings"`
	GameState Snapshot         `json:"gameState"`
}
