// Package session is the authoritative state machine of one game room: roster
// and reconnection, room leadership, rounds, turn rotation and scoring.
//
// A Game is not safe for concurrent use. Exactly one goroutine owns it and
// every call, including Scheduler callbacks, must run on that goroutine.
package session

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hintparty/pkg/types"
)

// MaxChatLength bounds player chat messages, counted in runes.
const MaxChatLength = 200

// Config holds the room limits and timer durations.
type Config struct {
	MaxPlayers       int
	MinPlayers       int
	MaxGuessAttempts int
	Cooldown         time.Duration
	Grace            time.Duration
}

// DefaultConfig returns the standard room settings.
func DefaultConfig() Config {
	return Config{
		MaxPlayers:       8,
		MinPlayers:       3,
		MaxGuessAttempts: 3,
		Cooldown:         3 * time.Second,
		Grace:            30 * time.Second,
	}
}

// Option customises a Game.
type Option func(*Game)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithResultSink records every finished game.
func WithResultSink(sink ResultSink) Option {
	return func(g *Game) { g.results = sink }
}

type graceTimer struct {
	gen    uint64
	cancel Cancel
}

// Game composes the registry, round engine and turn scheduler. Every method
// returns the events to deliver; rejections are returned both as an event for
// the originating connection and as an error.
type Game struct {
	cfg   Config
	reg   *registry
	round *roundEngine
	turns *turnScheduler

	sched   Scheduler
	chat    ChatLog
	results ResultSink
	now     func() time.Time

	// cool-down between a revealed answer and the next turn
	advanceGen    uint64
	cancelAdvance Cancel

	graces   map[string]graceTimer // nickname -> pending purge
	graceGen uint64

	startedAt   time.Time
	turnsPlayed int
}

// NewGame creates a room in the waiting phase.
func NewGame(cfg Config, source TopicSource, chat ChatLog, sched Scheduler, opts ...Option) *Game {
	g := &Game{
		cfg:    cfg,
		reg:    newRegistry(cfg.MaxPlayers),
		round:  &roundEngine{source: source, maxAttempts: cfg.MaxGuessAttempts},
		turns:  newTurnScheduler(),
		sched:  sched,
		chat:   chat,
		now:    time.Now,
		graces: make(map[string]graceTimer),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Phase returns the current game phase.
func (g *Game) Phase() Phase {
	return g.turns.phase
}

// LeaderID returns the room leader's connection id, or "".
func (g *Game) LeaderID() string {
	return g.reg.LeaderID()
}

// Join seats a new player, or reconnects one whose nickname is waiting out
// its grace window.
func (g *Game) Join(connID, nickname string) ([]types.Event, error) {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return g.reject(connID, types.EventJoinError, err), err
	}
	if g.reg.get(connID) != nil {
		return g.reject(connID, types.EventJoinError, ErrAlreadyJoined), ErrAlreadyJoined
	}
	if g.reg.isDisconnected(nick) {
		return g.Reconnect(connID, nick)
	}
	if g.turns.playing() {
		return g.reject(connID, types.EventJoinError, ErrGameInProgress), ErrGameInProgress
	}

	p, err := g.reg.add(connID, nick, g.now())
	if err != nil {
		return g.reject(connID, types.EventJoinError, err), err
	}

	log.Info().Str("module", "session").Str("nickname", nick).Str("conn_id", connID).Msg("Player joined")

	return []types.Event{
		g.direct(connID, types.EventJoinSuccess, JoinPayload{Player: *p, IsRoomLeader: g.reg.isLeader(connID)}),
		g.stateUpdate(),
		g.announce(types.ChatKindSystem, fmt.Sprintf("%s joined the game", nick)),
	}, nil
}

// Reconnect restores a disconnected player under a new connection id with its
// seat, score, ready flag and, if it held it, leadership.
func (g *Game) Reconnect(connID, nickname string) ([]types.Event, error) {
	nick, err := normalizeNickname(nickname)
	if err != nil {
		return g.reject(connID, types.EventJoinError, err), err
	}
	if g.reg.get(connID) != nil {
		return g.reject(connID, types.EventJoinError, ErrAlreadyJoined), ErrAlreadyJoined
	}

	p, oldID, err := g.reg.restore(connID, nick)
	if err != nil {
		return g.reject(connID, types.EventJoinError, err), err
	}
	g.stopGrace(nick)
	g.round.rebind(nick, connID)

	log.Info().Str("module", "session").Str("nickname", nick).Str("conn_id", connID).Str("previous_id", oldID).Msg("Player reconnected")

	events := []types.Event{
		g.direct(connID, types.EventJoinSuccess, JoinPayload{Player: *p, IsRoomLeader: g.reg.isLeader(connID), Reconnected: true}),
		g.broadcast(types.EventPlayerReconnected, ReconnectPayload{PlayerID: connID, PreviousID: oldID, Nickname: nick, GameState: g.Snapshot()}),
		g.announce(types.ChatKindSystem, fmt.Sprintf("%s reconnected", nick)),
	}
	if g.turns.playing() && nick != g.turns.expertName {
		events = append(events, g.direct(connID, types.EventAnswerForHint, g.answer()))
	}
	return events, nil
}

// ToggleReady flips the ready flag and returns the new value. Unknown
// connections are ignored.
func (g *Game) ToggleReady(connID string) ([]types.Event, bool) {
	if g.reg.get(connID) == nil {
		return nil, false
	}
	ready := g.reg.toggleReady(connID)
	return []types.Event{g.stateUpdate()}, ready
}

// StartGame moves the room from waiting to playing. Non-leaders get
// ErrUnauthorized and no events.
func (g *Game) StartGame(connID string) ([]types.Event, error) {
	if !g.reg.isLeader(connID) {
		return nil, ErrUnauthorized
	}

	var err error
	switch {
	case g.turns.phase != PhaseWaiting:
		err = fmt.Errorf("%w: game is %s", ErrCannotStart, g.turns.phase)
	case g.reg.count() < g.cfg.MinPlayers:
		err = fmt.Errorf("%w: need at least %d players", ErrCannotStart, g.cfg.MinPlayers)
	case !g.reg.allReady():
		err = fmt.Errorf("%w: not every player is ready", ErrCannotStart)
	}
	if err != nil {
		return g.reject(connID, types.EventStartGameError, err), err
	}

	g.turns.begin(g.reg.active)
	g.startRound()
	g.startedAt = g.now()

	log.Info().Str("module", "session").Int("players", g.reg.count()).Str("expert", g.turns.expertName).Msg("Game started")

	return []types.Event{
		g.announce(types.ChatKindGame, fmt.Sprintf("Game started! Everyone takes a turn as the expert. %s goes first.", g.turns.expertName)),
		g.broadcast(types.EventGameStarted, g.Snapshot()),
	}, nil
}

// SubmitHint records one hint from a non-expert for the current round.
func (g *Game) SubmitHint(connID, text string) ([]types.Event, error) {
	p := g.reg.get(connID)
	if p == nil {
		return g.reject(connID, types.EventHintError, ErrUnknownPlayer), ErrUnknownPlayer
	}
	if !g.turns.playing() {
		return g.reject(connID, types.EventHintError, ErrNotPlaying), ErrNotPlaying
	}

	hint, err := g.round.addHint(p, g.turns.expertName, text)
	if err != nil {
		return g.reject(connID, types.EventHintError, err), err
	}

	return []types.Event{
		g.announce(types.ChatKindGame, fmt.Sprintf("%s submitted a hint", p.Nickname)),
		g.broadcast(types.EventHintAdded, HintPayload{Hint: hint, GameState: g.Snapshot()}),
	}, nil
}

// MakeGuess evaluates the expert's guess. A revealed answer closes the round
// and schedules the next turn after the cool-down.
func (g *Game) MakeGuess(connID, text string) ([]types.Event, error) {
	p := g.reg.get(connID)
	if p == nil {
		return g.reject(connID, types.EventGuessError, ErrUnknownPlayer), ErrUnknownPlayer
	}
	if !g.turns.playing() {
		return g.reject(connID, types.EventGuessError, ErrNotPlaying), ErrNotPlaying
	}
	if p.Nickname != g.turns.expertName {
		return g.reject(connID, types.EventGuessError, ErrNotExpert), ErrNotExpert
	}

	out, err := g.round.evaluate(p, text, g.reg.lookup)
	if err != nil {
		return g.reject(connID, types.EventGuessError, err), err
	}

	var message string
	switch {
	case out.Correct:
		message = fmt.Sprintf("%s guessed it! The answer was %s", p.Nickname, out.Topic)
	case out.RevealAnswer:
		message = fmt.Sprintf("%s is out of guesses. The answer was %s", p.Nickname, out.Topic)
	default:
		message = fmt.Sprintf("%s guessed %s. %d attempts left", p.Nickname, out.Guess, out.Remaining)
	}

	events := []types.Event{
		g.announce(types.ChatKindGame, message),
		g.broadcast(types.EventGuessResult, GuessPayload{GuessOutcome: out, Message: message, GameState: g.Snapshot()}),
	}
	if out.RevealAnswer {
		g.scheduleAdvance()
	}
	return events, nil
}

// RestartGame returns a playing or finished room to waiting and resets every
// player, including those still inside their grace window.
func (g *Game) RestartGame(connID string) ([]types.Event, error) {
	if !g.reg.isLeader(connID) {
		return nil, ErrUnauthorized
	}
	if g.turns.phase == PhaseWaiting {
		return nil, fmt.Errorf("%w: nothing to restart", ErrNotPlaying)
	}

	g.stopAdvance()
	g.turns.reset()
	g.round.clear()
	g.reg.resetAll()
	g.turnsPlayed = 0

	log.Info().Str("module", "session").Msg("Game restarted")

	return []types.Event{
		g.announce(types.ChatKindSystem, "Game reset. Get ready for a new game!"),
		g.broadcast(types.EventGameRestarted, g.Snapshot()),
	}, nil
}

// RequestAnswer sends the current topic to a non-expert while playing.
func (g *Game) RequestAnswer(connID string) ([]types.Event, error) {
	p := g.reg.get(connID)
	var err error
	switch {
	case p == nil:
		err = ErrUnknownPlayer
	case !g.turns.playing():
		err = ErrNotPlaying
	case p.Nickname == g.turns.expertName:
		err = ErrExpertCannotView
	}
	if err != nil {
		return g.reject(connID, types.EventAnswerError, err), err
	}
	return []types.Event{g.direct(connID, types.EventAnswerForHint, g.answer())}, nil
}

// Chat appends a player message to the chat log.
func (g *Game) Chat(connID, text string) ([]types.Event, error) {
	p := g.reg.get(connID)
	if p == nil {
		return g.reject(connID, types.EventError, ErrUnknownPlayer), ErrUnknownPlayer
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return g.reject(connID, types.EventError, ErrEmptyText), ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxChatLength {
		text = string([]rune(text)[:MaxChatLength])
	}
	msg := g.chat.Append(p.ID, p.Nickname, text, types.ChatKindChat)
	return []types.Event{g.broadcast(types.EventChatMessage, msg)}, nil
}

// Disconnect handles a closed connection. While playing the player keeps its
// seat for the grace window; otherwise it is removed at once.
func (g *Game) Disconnect(connID string) ([]types.Event, error) {
	if g.reg.get(connID) == nil {
		return nil, ErrUnknownPlayer
	}

	if g.turns.playing() {
		p := g.reg.detach(connID)
		g.startGrace(p.Nickname)

		log.Info().Str("module", "session").Str("nickname", p.Nickname).Dur("grace", g.cfg.Grace).Msg("Player disconnected mid-game")

		graceSeconds := int(g.cfg.Grace / time.Second)
		return []types.Event{
			g.announce(types.ChatKindSystem, fmt.Sprintf("%s disconnected. Their seat is held for %d seconds", p.Nickname, graceSeconds)),
			g.broadcast(types.EventPlayerDisconnected, DisconnectPayload{
				PlayerID:      connID,
				Nickname:      p.Nickname,
				Reconnectable: true,
				GraceSeconds:  graceSeconds,
				GameState:     g.Snapshot(),
			}),
		}, nil
	}

	p := g.reg.remove(connID)
	log.Info().Str("module", "session").Str("nickname", p.Nickname).Msg("Player left")

	return []types.Event{
		g.announce(types.ChatKindSystem, fmt.Sprintf("%s left the game", p.Nickname)),
		g.broadcast(types.EventPlayerDisconnected, DisconnectPayload{
			PlayerID:  connID,
			Nickname:  p.Nickname,
			GameState: g.Snapshot(),
		}),
	}, nil
}

func (g *Game) startRound() {
	g.round.start()
	g.turnsPlayed++
}

// advance moves to the next expert or ends the game.
func (g *Game) advance() []types.Event {
	if !g.turns.advance(g.reg.active) {
		if g.turns.phase == PhaseFinished {
			return g.finish()
		}
		return nil
	}
	g.startRound()

	log.Info().Str("module", "session").Int("round", g.turns.round).Str("expert", g.turns.expertName).Msg("Next turn")

	return []types.Event{
		g.announce(types.ChatKindGame, fmt.Sprintf("Round %d: %s is the expert", g.turns.round, g.turns.expertName)),
		g.broadcast(types.EventNextRound, g.Snapshot()),
	}
}

func (g *Game) finish() []types.Event {
	g.stopAdvance()
	g.round.clear()

	standings := g.standings()
	if g.results != nil {
		g.results.RecordResult(types.GameResult{
			ID:         uuid.NewString(),
			StartedAt:  g.startedAt,
			FinishedAt: g.now(),
			Turns:      g.turnsPlayed,
			Standings:  standings,
		})
	}

	log.Info().Str("module", "session").Int("turns", g.turnsPlayed).Msg("Game finished")

	return []types.Event{
		g.announce(types.ChatKindGame, "Game over! Check the final standings"),
		g.broadcast(types.EventGameEnded, GameEndedPayload{Standings: standings, GameState: g.Snapshot()}),
	}
}

func (g *Game) scheduleAdvance() {
	g.stopAdvance()
	gen := g.advanceGen
	g.cancelAdvance = g.sched.AfterFunc(g.cfg.Cooldown, func() []types.Event {
		if gen != g.advanceGen {
			return nil
		}
		g.cancelAdvance = nil
		return g.advance()
	})
}

func (g *Game) stopAdvance() {
	g.advanceGen++
	if g.cancelAdvance != nil {
		g.cancelAdvance()
		g.cancelAdvance = nil
	}
}

func (g *Game) advancePending() bool {
	return g.cancelAdvance != nil
}

func (g *Game) startGrace(nickname string) {
	g.stopGrace(nickname)
	g.graceGen++
	gen := g.graceGen
	cancel := g.sched.AfterFunc(g.cfg.Grace, func() []types.Event {
		return g.expireGrace(nickname, gen)
	})
	g.graces[nickname] = graceTimer{gen: gen, cancel: cancel}
}

func (g *Game) stopGrace(nickname string) {
	if t, ok := g.graces[nickname]; ok {
		t.cancel()
		delete(g.graces, nickname)
	}
}

// expireGrace purges a player that did not come back. It re-checks state and
// does nothing if the player reconnected or a newer timer replaced this one.
func (g *Game) expireGrace(nickname string, gen uint64) []types.Event {
	t, ok := g.graces[nickname]
	if !ok || t.gen != gen {
		return nil
	}
	delete(g.graces, nickname)

	if g.reg.purge(nickname) == nil {
		return nil
	}

	log.Info().Str("module", "session").Str("nickname", nickname).Msg("Grace window expired, player removed")

	events := []types.Event{
		g.announce(types.ChatKindSystem, fmt.Sprintf("%s did not reconnect and was removed", nickname)),
		g.stateUpdate(),
	}
	if g.turns.playing() && g.turns.expertName == nickname && !g.advancePending() {
		events = append(events, g.advance()...)
	}
	return events
}

// expert returns the current expert, connected or inside its grace window.
func (g *Game) expert() *Player {
	if g.turns.expertName == "" {
		return nil
	}
	return g.reg.lookup(g.turns.expertName)
}

func (g *Game) answer() AnswerPayload {
	return AnswerPayload{Answer: g.round.topic, Category: g.round.category}
}

// standings ranks every known player by score; ties share a rank.
func (g *Game) standings() []types.Standing {
	players := append(append([]*Player{}, g.reg.active...), g.reg.disconnectedPlayers()...)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].seat < players[j].seat
	})

	out := make([]types.Standing, len(players))
	for i, p := range players {
		rank := i + 1
		if i > 0 && p.Score == players[i-1].Score {
			rank = out[i-1].Rank
		}
		out[i] = types.Standing{Nickname: p.Nickname, Score: p.Score, Rank: rank}
	}
	return out
}

func (g *Game) stateUpdate() types.Event {
	return g.broadcast(types.EventGameStateUpdate, g.Snapshot())
}

func (g *Game) announce(kind, text string) types.Event {
	msg := g.chat.Append("", "System", text, kind)
	return g.broadcast(types.EventChatMessage, msg)
}

func (g *Game) broadcast(eventType string, payload any) types.Event {
	return types.Event{Type: eventType, Payload: payload, Timestamp: g.now()}
}

func (g *Game) direct(to, eventType string, payload any) types.Event {
	return types.Event{To: to, Type: eventType, Payload: payload, Timestamp: g.now()}
}

func (g *Game) reject(to, eventType string, err error) []types.Event {
	return []types.Event{g.direct(to, eventType, types.ErrorPayload{Code: ErrorCode(err), Message: err.Error()})}
}
