package session

// Snapshot is a value copy of the broadcastable session state. It never
// carries the secret topic.
type Snapshot struct {
	GamePhase         Phase    `json:"gamePhase"`
	Players           []Player `json:"players"`
	PlayerCount       int      `json:"playerCount"`
	MaxPlayers        int      `json:"maxPlayers"`
	MinPlayers        int      `json:"minPlayers"`
	RoomLeaderID      string   `json:"roomLeader,omitempty"`
	Round             int      `json:"round"`
	CurrentExpert     *Player  `json:"currentExpert"`
	CurrentCategory   string   `json:"currentCategory"`
	Hints             []Hint   `json:"hints"`
	GuessAttempts     int      `json:"guessAttempts"`
	MaxGuessAttempts  int      `json:"maxGuessAttempts"`
	DisconnectedCount int      `json:"disconnectedCount"`
	Disconnected      []Player `json:"disconnectedPlayers"`
	RoundClosed       bool     `json:"roundClosed"`
}

// CurrentExpertID returns the expert's connection id, or "".
func (s Snapshot) CurrentExpertID() string {
	if s.CurrentExpert == nil {
		return ""
	}
	return s.CurrentExpert.ID
}

// Player returns the active player with the given nickname.
func (s Snapshot) Player(nickname string) (Player, bool) {
	for _, p := range s.Players {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return Player{}, false
}

// Snapshot copies the current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		GamePhase:         g.turns.phase,
		Players:           copyPlayers(g.reg.active),
		PlayerCount:       g.reg.count(),
		MaxPlayers:        g.cfg.MaxPlayers,
		MinPlayers:        g.cfg.MinPlayers,
		RoomLeaderID:      g.reg.LeaderID(),
		Round:             g.turns.round,
		Hints:             g.round.hintsCopy(),
		GuessAttempts:     g.round.attempts,
		MaxGuessAttempts:  g.cfg.MaxGuessAttempts,
		Disconnected:      copyPlayers(g.reg.disconnectedPlayers()),
		RoundClosed:       g.round.closed,
	}
	s.DisconnectedCount = len(s.Disconnected)
	if g.turns.playing() {
		s.CurrentCategory = g.round.category
		if p := g.expert(); p != nil {
			cp := *p
			s.CurrentExpert = &cp
		}
	}
	return s
}

func copyPlayers(players []*Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = *p
	}
	return out
}
