package session

import "strings"

// Scoring.
const (
	ExpertPoints = 10
	HintPoints   = 5
)

// TopicSource supplies a (category, item) pair for each new round.
type TopicSource interface {
	Draw() (category, item string)
}

// Hint is one clue for the current round.
type Hint struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Text       string `json:"hint"`
}

// GuessOutcome is the result of one guess. Topic is set only when RevealAnswer is.
type GuessOutcome struct {
	Correct      bool   `json:"correct"`
	RevealAnswer bool   `json:"revealAnswer"`
	Topic        string `json:"answer,omitempty"`
	Remaining    int    `json:"remaining"`
	Guess        string `json:"guess"`
	ExpertName   string `json:"expertName"`
}

// roundEngine holds the secret topic, the hints and the guess counter of the
// current round.
type roundEngine struct {
	source      TopicSource
	maxAttempts int

	category string
	topic    string
	hints    []Hint
	attempts int
	// set once the answer is revealed; rejects stray hints and guesses until
	// the next round starts
	closed bool
}

func (r *roundEngine) start() {
	r.hints = nil
	r.attempts = 0
	r.closed = false
	r.category, r.topic = r.source.Draw()
}

func (r *roundEngine) clear() {
	r.hints = nil
	r.attempts = 0
	r.closed = false
	r.category = ""
	r.topic = ""
}

func (r *roundEngine) addHint(p *Player, expertName, text string) (Hint, error) {
	if r.closed {
		return Hint{}, ErrRoundClosed
	}
	if p.Nickname == expertName {
		return Hint{}, ErrExpertCannotHint
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Hint{}, ErrEmptyText
	}
	for _, h := range r.hints {
		if h.PlayerName == p.Nickname {
			return Hint{}, ErrDuplicateHint
		}
	}
	h := Hint{PlayerID: p.ID, PlayerName: p.Nickname, Text: text}
	r.hints = append(r.hints, h)
	return h, nil
}

// rebind points the hint of a reconnected player at its new connection id.
func (r *roundEngine) rebind(nickname, connID string) {
	for i := range r.hints {
		if r.hints[i].PlayerName == nickname {
			r.hints[i].PlayerID = connID
		}
	}
}

// evaluate scores one guess by expert. resolve finds hint contributors by
// nickname; contributors it cannot find are skipped.
func (r *roundEngine) evaluate(expert *Player, guess string, resolve func(nickname string) *Player) (GuessOutcome, error) {
	if r.closed {
		return GuessOutcome{}, ErrRoundClosed
	}
	// a blank guess never matches but still spends an attempt
	guess = strings.TrimSpace(guess)
	r.attempts++
	out := GuessOutcome{Guess: guess, ExpertName: expert.Nickname}

	if strings.EqualFold(guess, strings.TrimSpace(r.topic)) {
		expert.Score += ExpertPoints
		for _, h := range r.hints {
			if p := resolve(h.PlayerName); p != nil {
				p.Score += HintPoints
			}
		}
		out.Correct = true
		out.RevealAnswer = true
	} else if r.attempts >= r.maxAttempts {
		out.RevealAnswer = true
	} else {
		out.Remaining = r.maxAttempts - r.attempts
	}

	if out.RevealAnswer {
		out.Topic = r.topic
		r.closed = true
	}
	return out, nil
}

func (r *roundEngine) hintsCopy() []Hint {
	return append([]Hint{}, r.hints...)
}
