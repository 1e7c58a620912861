package session

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MaxNicknameLength bounds nicknames, counted in runes.
const MaxNicknameLength = 32

// Player is one seat at the table. ID is the current connection id and changes
// on reconnect; Nickname is the durable key.
type Player struct {
	ID            string    `json:"id"`
	Nickname      string    `json:"nickname"`
	Ready         bool      `json:"ready"`
	Score         int       `json:"score"`
	Connected     bool      `json:"connected"`
	JoinTime      time.Time `json:"joinTime"`
	WasRoomLeader bool      `json:"wasRoomLeader,omitempty"`

	// join order; kept across reconnects
	seat uint64
}

// Seat returns the player's position in join order.
func (p *Player) Seat() uint64 {
	return p.seat
}

func normalizeNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", ErrInvalidNickname
	}
	return nickname, nil
}
