package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hintparty/pkg/types"
)

func TestJoin_FirstPlayerLeads(t *testing.T) {
	h := newHarness(t)

	events, err := h.game.Join("c1", "  alice ")
	require.NoError(t, err)

	success := ofType(events, types.EventJoinSuccess)
	require.Len(t, success, 1)
	assert.Equal(t, "c1", success[0].To)
	payload := success[0].Payload.(JoinPayload)
	assert.Equal(t, "alice", payload.Player.Nickname)
	assert.True(t, payload.IsRoomLeader)
	assert.Len(t, ofType(events, types.EventGameStateUpdate), 1)

	_, err = h.game.Join("c2", "bob")
	require.NoError(t, err)

	s := h.snapshot()
	assert.Equal(t, "c1", s.RoomLeaderID)
	assert.Equal(t, 2, s.PlayerCount)
	assert.Equal(t, PhaseWaiting, s.GamePhase)
	require.Len(t, h.chat.messages, 2)
	assert.Equal(t, types.ChatKindSystem, h.chat.messages[0].Kind)
	checkInvariants(t, h.game)
}

func TestJoin_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, h *harness)
		conn    string
		nick    string
		wantErr error
	}{
		{name: "empty nickname", conn: "c", nick: "   ", wantErr: ErrInvalidNickname},
		{name: "long nickname", conn: "c", nick: strings.Repeat("n", MaxNicknameLength+1), wantErr: ErrInvalidNickname},
		{
			name:    "nickname taken",
			setup:   func(t *testing.T, h *harness) { h.join(t, "alice") },
			conn:    "c",
			nick:    "alice",
			wantErr: ErrNicknameTaken,
		},
		{
			name:    "connection already joined",
			setup:   func(t *testing.T, h *harness) { h.join(t, "alice") },
			conn:    connID("alice"),
			nick:    "bob",
			wantErr: ErrAlreadyJoined,
		},
		{
			name: "room full",
			setup: func(t *testing.T, h *harness) {
				for i := 0; i < DefaultConfig().MaxPlayers; i++ {
					h.join(t, fmt.Sprintf("p%d", i))
				}
			},
			conn:    "c",
			nick:    "late",
			wantErr: ErrRoomFull,
		},
		{
			name: "game in progress",
			setup: func(t *testing.T, h *harness) {
				h.join(t, "P1", "P2", "P3")
				h.readyAll(t)
				_, err := h.game.StartGame(connID("P1"))
				require.NoError(t, err)
			},
			conn:    "c",
			nick:    "late",
			wantErr: ErrGameInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(t, h)
			}
			before := h.snapshot()

			events, err := h.game.Join(tt.conn, tt.nick)
			assert.ErrorIs(t, err, tt.wantErr)
			require.Len(t, events, 1)
			assert.Equal(t, types.EventJoinError, events[0].Type)
			assert.Equal(t, tt.conn, events[0].To)
			assert.Equal(t, ErrorCode(tt.wantErr), events[0].Payload.(types.ErrorPayload).Code)
			assert.Equal(t, before, h.snapshot())
		})
	}
}

func TestJoin_AllowedAfterGameFinished(t *testing.T) {
	h := newHarness(t)
	h.game.turns.phase = PhaseFinished

	_, err := h.game.Join("c1", "alice")
	assert.NoError(t, err)
}

func TestToggleReady(t *testing.T) {
	h := newHarness(t)
	h.join(t, "alice")

	_, ready := h.game.ToggleReady(connID("alice"))
	assert.True(t, ready)
	_, ready = h.game.ToggleReady(connID("alice"))
	assert.False(t, ready)

	p, _ := h.snapshot().Player("alice")
	assert.False(t, p.Ready)

	events, ready := h.game.ToggleReady("nobody")
	assert.False(t, ready)
	assert.Empty(t, events)
}

func TestStartGame_PlayerCountBoundary(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2")
	h.readyAll(t)

	events, err := h.game.StartGame(connID("P1"))
	assert.ErrorIs(t, err, ErrCannotStart)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventStartGameError, events[0].Type)
	assert.Equal(t, connID("P1"), events[0].To)
	assert.Equal(t, PhaseWaiting, h.game.Phase())

	h.join(t, "P3")
	h.readyAll(t)
	_, err = h.game.StartGame(connID("P1"))
	assert.NoError(t, err)
	assert.Equal(t, PhasePlaying, h.game.Phase())
}

func TestStartGame_RequiresEveryoneReady(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")
	h.game.ToggleReady(connID("P1"))
	h.game.ToggleReady(connID("P2"))

	_, err := h.game.StartGame(connID("P1"))
	assert.ErrorIs(t, err, ErrCannotStart)
	assert.Equal(t, PhaseWaiting, h.game.Phase())
}

func TestStartGame_NonLeaderIsSilent(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")
	h.readyAll(t)

	events, err := h.game.StartGame(connID("P2"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, events)
	assert.Equal(t, PhaseWaiting, h.game.Phase())
}

func TestStartGame_OnlyFromWaiting(t *testing.T) {
	h := started(t)

	_, err := h.game.StartGame(connID("P1"))
	assert.ErrorIs(t, err, ErrCannotStart)
	assert.Equal(t, 1, h.game.turnsPlayed)
}

func TestScenarioA_StartGame(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")
	h.readyAll(t)

	events, err := h.game.StartGame(connID("P1"))
	require.NoError(t, err)
	assert.Len(t, ofType(events, types.EventGameStarted), 1)

	s := h.snapshot()
	assert.Equal(t, PhasePlaying, s.GamePhase)
	assert.Equal(t, 1, s.Round)
	require.NotNil(t, s.CurrentExpert)
	assert.Equal(t, "P1", s.CurrentExpert.Nickname)
	assert.Equal(t, connID("P1"), s.CurrentExpertID())
	assert.Equal(t, "Food", s.CurrentCategory)
	checkInvariants(t, h.game)
}

func TestScenarioB_CorrectGuessScoresAndRotates(t *testing.T) {
	h := started(t)

	_, err := h.game.SubmitHint(connID("P2"), "Italian")
	require.NoError(t, err)
	_, err = h.game.SubmitHint(connID("P3"), "round and cheesy")
	require.NoError(t, err)
	checkInvariants(t, h.game)

	events, err := h.game.MakeGuess(connID("P1"), "  pIZZa ")
	require.NoError(t, err)

	results := ofType(events, types.EventGuessResult)
	require.Len(t, results, 1)
	out := results[0].Payload.(GuessPayload)
	assert.True(t, out.Correct)
	assert.True(t, out.RevealAnswer)
	assert.Equal(t, "Pizza", out.Topic)

	s := h.snapshot()
	for name, score := range map[string]int{"P1": 10, "P2": 5, "P3": 5} {
		p, ok := s.Player(name)
		require.True(t, ok)
		assert.Equal(t, score, p.Score, name)
	}
	assert.True(t, s.RoundClosed)
	assert.Equal(t, "P1", h.expertName())

	events = h.sched.Advance(h.game.cfg.Cooldown)
	assert.Len(t, ofType(events, types.EventNextRound), 1)

	s = h.snapshot()
	assert.Equal(t, "P2", h.expertName())
	assert.Equal(t, 1, s.Round)
	assert.Empty(t, s.Hints)
	assert.Zero(t, s.GuessAttempts)
	assert.False(t, s.RoundClosed)
	checkInvariants(t, h.game)
}

func TestScenarioC_ExhaustedGuessesRevealAndAdvanceOnce(t *testing.T) {
	h := started(t)

	for i := 1; i <= 2; i++ {
		events, err := h.game.MakeGuess(connID("P1"), "burger")
		require.NoError(t, err)
		out := ofType(events, types.EventGuessResult)[0].Payload.(GuessPayload)
		assert.False(t, out.Correct)
		assert.False(t, out.RevealAnswer)
		assert.Empty(t, out.Topic)
		assert.Equal(t, 3-i, out.Remaining)
	}

	events, err := h.game.MakeGuess(connID("P1"), "burger")
	require.NoError(t, err)
	out := ofType(events, types.EventGuessResult)[0].Payload.(GuessPayload)
	assert.False(t, out.Correct)
	assert.True(t, out.RevealAnswer)
	assert.Equal(t, "Pizza", out.Topic)

	// round is latched until the cool-down elapses
	_, err = h.game.MakeGuess(connID("P1"), "pizza")
	assert.ErrorIs(t, err, ErrRoundClosed)
	_, err = h.game.SubmitHint(connID("P2"), "late")
	assert.ErrorIs(t, err, ErrRoundClosed)

	p1, _ := h.snapshot().Player("P1")
	assert.Zero(t, p1.Score)

	events = h.sched.Advance(h.game.cfg.Cooldown * 10)
	assert.Len(t, ofType(events, types.EventNextRound), 1)
	assert.Equal(t, "P2", h.expertName())
	assert.Equal(t, 0, h.sched.Pending())
}

func TestScenarioD_ExpertGraceExpiryAdvancesTurn(t *testing.T) {
	h := started(t)

	events, err := h.game.Disconnect(connID("P1"))
	require.NoError(t, err)
	disc := ofType(events, types.EventPlayerDisconnected)
	require.Len(t, disc, 1)
	assert.True(t, disc[0].Payload.(DisconnectPayload).Reconnectable)

	s := h.snapshot()
	assert.Equal(t, 1, s.DisconnectedCount)
	assert.Equal(t, connID("P2"), s.RoomLeaderID)
	assert.Equal(t, "P1", h.expertName())
	checkInvariants(t, h.game)

	events = h.sched.Advance(h.game.cfg.Grace)
	assert.Len(t, ofType(events, types.EventNextRound), 1)

	s = h.snapshot()
	assert.Zero(t, s.DisconnectedCount)
	assert.Equal(t, 2, s.PlayerCount)
	assert.Equal(t, "P2", h.expertName())
	assert.Equal(t, 1, s.Round)

	// P2 -> P3 stays in round 1, P3 -> P2 wraps once into round 2
	_, err = h.game.MakeGuess(connID("P2"), "pizza")
	require.NoError(t, err)
	h.sched.Advance(h.game.cfg.Cooldown)
	assert.Equal(t, "P3", h.expertName())
	assert.Equal(t, 1, h.snapshot().Round)

	_, err = h.game.MakeGuess(connID("P3"), "pizza")
	require.NoError(t, err)
	h.sched.Advance(h.game.cfg.Cooldown)
	assert.Equal(t, "P2", h.expertName())
	assert.Equal(t, 2, h.snapshot().Round)
	checkInvariants(t, h.game)
}

func TestExpertPurgeOfLastSeatWrapsOnce(t *testing.T) {
	h := started(t)
	for _, name := range []string{"P1", "P2"} {
		_, err := h.game.MakeGuess(connID(name), "pizza")
		require.NoError(t, err)
		h.sched.Advance(h.game.cfg.Cooldown)
	}
	require.Equal(t, "P3", h.expertName())

	_, err := h.game.Disconnect(connID("P3"))
	require.NoError(t, err)
	h.sched.Advance(h.game.cfg.Grace)

	assert.Equal(t, "P1", h.expertName())
	assert.Equal(t, 2, h.snapshot().Round)
	assert.Equal(t, PhasePlaying, h.game.Phase())
}

func TestExpertPurgeDuringCooldownAdvancesOnce(t *testing.T) {
	h := newHarness(t)
	h.game.cfg.Grace = h.game.cfg.Cooldown / 2
	h.join(t, "P1", "P2", "P3")
	h.readyAll(t)
	_, err := h.game.StartGame(connID("P1"))
	require.NoError(t, err)

	_, err = h.game.MakeGuess(connID("P1"), "pizza")
	require.NoError(t, err)
	_, err = h.game.Disconnect(connID("P1"))
	require.NoError(t, err)

	events := h.sched.Advance(h.game.cfg.Cooldown)
	assert.Len(t, ofType(events, types.EventNextRound), 1)
	assert.Equal(t, "P2", h.expertName())
	assert.Equal(t, 1, h.snapshot().Round)
}

func TestScenarioE_GameFinishesAfterLastRound(t *testing.T) {
	h := started(t)

	nextRounds := 0
	for turn := 0; turn < 9; turn++ {
		expert := h.snapshot().CurrentExpert
		require.NotNil(t, expert, "turn %d", turn)
		assert.Equal(t, turn/3+1, h.snapshot().Round, "turn %d", turn)

		_, err := h.game.MakeGuess(expert.ID, "pizza")
		require.NoError(t, err)
		events := h.sched.Advance(h.game.cfg.Cooldown)
		nextRounds += len(ofType(events, types.EventNextRound))

		if turn == 8 {
			ended := ofType(events, types.EventGameEnded)
			require.Len(t, ended, 1)
			standings := ended[0].Payload.(GameEndedPayload).Standings
			require.Len(t, standings, 3)
			for _, st := range standings {
				assert.Equal(t, 1, st.Rank)
				assert.Equal(t, 30, st.Score)
			}
		}
	}

	assert.Equal(t, 8, nextRounds)
	s := h.snapshot()
	assert.Equal(t, PhaseFinished, s.GamePhase)
	assert.Nil(t, s.CurrentExpert)
	assert.Empty(t, s.CurrentCategory)

	require.Len(t, h.sink.results, 1)
	assert.Equal(t, 9, h.sink.results[0].Turns)
	assert.NotEmpty(t, h.sink.results[0].ID)
}

func TestReconnect_RoundTripRestoresState(t *testing.T) {
	h := started(t)
	_, err := h.game.SubmitHint(connID("P2"), "cheese")
	require.NoError(t, err)
	_, err = h.game.MakeGuess(connID("P1"), "pizza")
	require.NoError(t, err)
	h.sched.Advance(h.game.cfg.Cooldown)

	before, _ := h.snapshot().Player("P1")
	require.Equal(t, 10, before.Score)

	// P1 is leader and not the expert any more
	_, err = h.game.Disconnect(connID("P1"))
	require.NoError(t, err)
	assert.Equal(t, connID("P2"), h.game.LeaderID())
	assert.True(t, h.snapshot().Disconnected[0].WasRoomLeader)

	events, err := h.game.Join("new-conn", "P1")
	require.NoError(t, err)

	joined := ofType(events, types.EventJoinSuccess)[0].Payload.(JoinPayload)
	assert.True(t, joined.Reconnected)
	assert.True(t, joined.IsRoomLeader)

	answers := ofType(events, types.EventAnswerForHint)
	require.Len(t, answers, 1)
	assert.Equal(t, "new-conn", answers[0].To)
	assert.Equal(t, AnswerPayload{Answer: "Pizza", Category: "Food"}, answers[0].Payload)

	after, ok := h.snapshot().Player("P1")
	require.True(t, ok)
	assert.Equal(t, "new-conn", after.ID)
	assert.Equal(t, before.Score, after.Score)
	assert.Equal(t, before.Ready, after.Ready)
	assert.Equal(t, before.Seat(), after.Seat())
	assert.False(t, after.WasRoomLeader)
	assert.Equal(t, "new-conn", h.game.LeaderID())
	assert.Equal(t, "P1", h.snapshot().Players[0].Nickname)

	// the cancelled purge never fires
	events = h.sched.Advance(h.game.cfg.Grace * 2)
	assert.Empty(t, events)
	_, ok = h.snapshot().Player("P1")
	assert.True(t, ok)
	checkInvariants(t, h.game)
}

func TestReconnect_ExpertGetsNoAnswer(t *testing.T) {
	h := started(t)
	_, err := h.game.Disconnect(connID("P1"))
	require.NoError(t, err)

	events, err := h.game.Reconnect("again", "P1")
	require.NoError(t, err)
	assert.Empty(t, ofType(events, types.EventAnswerForHint))
	assert.Equal(t, "again", h.snapshot().CurrentExpertID())

	_, err = h.game.MakeGuess("again", "pizza")
	assert.NoError(t, err)
}

func TestReconnect_UnknownTarget(t *testing.T) {
	h := newHarness(t)
	events, err := h.game.Reconnect("c1", "ghost")
	assert.ErrorIs(t, err, ErrUnknownReconnectTarget)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventJoinError, events[0].Type)
}

func TestReconnect_HintStaysAttributed(t *testing.T) {
	h := started(t)
	_, err := h.game.SubmitHint(connID("P2"), "cheese")
	require.NoError(t, err)

	_, err = h.game.Disconnect(connID("P2"))
	require.NoError(t, err)
	_, err = h.game.Join("p2-again", "P2")
	require.NoError(t, err)

	_, err = h.game.SubmitHint("p2-again", "second try")
	assert.ErrorIs(t, err, ErrDuplicateHint)
	assert.Equal(t, "p2-again", h.snapshot().Hints[0].PlayerID)
	checkInvariants(t, h.game)
}

func TestReconnect_WhileGameInProgressBypassesJoinBlock(t *testing.T) {
	h := started(t)
	_, err := h.game.Disconnect(connID("P3"))
	require.NoError(t, err)

	_, err = h.game.Join("late", "P4")
	assert.ErrorIs(t, err, ErrGameInProgress)
	_, err = h.game.Join("back", "P3")
	assert.NoError(t, err)
}

func TestDisconnect_BeforeGameRemovesPlayer(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")

	events, err := h.game.Disconnect(connID("P1"))
	require.NoError(t, err)
	disc := ofType(events, types.EventPlayerDisconnected)
	require.Len(t, disc, 1)
	assert.False(t, disc[0].Payload.(DisconnectPayload).Reconnectable)

	s := h.snapshot()
	assert.Equal(t, 2, s.PlayerCount)
	assert.Zero(t, s.DisconnectedCount)
	assert.Equal(t, connID("P2"), s.RoomLeaderID)
	assert.Zero(t, h.sched.Pending())

	_, err = h.game.Join("fresh", "P1")
	assert.NoError(t, err)
	checkInvariants(t, h.game)

	_, err = h.game.Disconnect("unknown")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
}

func TestDisconnect_LastPlayerClearsLeader(t *testing.T) {
	h := newHarness(t)
	h.join(t, "solo")
	_, err := h.game.Disconnect(connID("solo"))
	require.NoError(t, err)
	assert.Empty(t, h.game.LeaderID())
	checkInvariants(t, h.game)
}

func TestGrace_ContributorInGraceIsStillCredited(t *testing.T) {
	h := started(t)
	_, err := h.game.SubmitHint(connID("P2"), "cheese")
	require.NoError(t, err)
	_, err = h.game.SubmitHint(connID("P3"), "slice")
	require.NoError(t, err)

	_, err = h.game.Disconnect(connID("P2"))
	require.NoError(t, err)
	h.sched.Advance(h.game.cfg.Grace / 2)
	_, err = h.game.Disconnect(connID("P3"))
	require.NoError(t, err)
	// P2 is purged, P3 is still inside its window
	h.sched.Advance(h.game.cfg.Grace*2/3)
	require.Equal(t, 1, h.snapshot().DisconnectedCount)

	_, err = h.game.MakeGuess(connID("P1"), "Pizza")
	require.NoError(t, err)

	s := h.snapshot()
	p1, _ := s.Player("P1")
	assert.Equal(t, 10, p1.Score)
	require.Len(t, s.Disconnected, 1)
	assert.Equal(t, "P3", s.Disconnected[0].Nickname)
	assert.Equal(t, 5, s.Disconnected[0].Score)
}

func TestSubmitHint_Rejections(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")

	_, err := h.game.SubmitHint(connID("P2"), "early")
	assert.ErrorIs(t, err, ErrNotPlaying)

	h.readyAll(t)
	_, err = h.game.StartGame(connID("P1"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		conn    string
		text    string
		wantErr error
	}{
		{"expert", connID("P1"), "mine", ErrExpertCannotHint},
		{"unknown", "ghost", "boo", ErrUnknownPlayer},
		{"blank", connID("P2"), "   ", ErrEmptyText},
		{"first hint", connID("P2"), "cheese", nil},
		{"duplicate", connID("P2"), "more cheese", ErrDuplicateHint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := h.game.SubmitHint(tt.conn, tt.text)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Len(t, ofType(events, types.EventHintAdded), 1)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			require.Len(t, events, 1)
			assert.Equal(t, types.EventHintError, events[0].Type)
			assert.Equal(t, tt.conn, events[0].To)
		})
	}

	assert.Len(t, h.snapshot().Hints, 1)
	checkInvariants(t, h.game)
}

func TestMakeGuess_NotExpert(t *testing.T) {
	h := started(t)

	events, err := h.game.MakeGuess(connID("P2"), "pizza")
	assert.ErrorIs(t, err, ErrNotExpert)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventGuessError, events[0].Type)
	assert.Zero(t, h.snapshot().GuessAttempts)
}

func TestMakeGuess_BlankGuessSpendsAttempt(t *testing.T) {
	h := started(t)

	events, err := h.game.MakeGuess(connID("P1"), "   ")
	require.NoError(t, err)
	out := ofType(events, types.EventGuessResult)[0].Payload.(GuessPayload)
	assert.False(t, out.Correct)
	assert.Empty(t, out.Guess)
	assert.Equal(t, 2, out.Remaining)
	assert.Equal(t, 1, h.snapshot().GuessAttempts)
	checkInvariants(t, h.game)
}

func TestSnapshot_ValueAccessors(t *testing.T) {
	h := started(t)

	assert.Equal(t, connID("P1"), h.snapshot().CurrentExpertID())
	p, ok := h.snapshot().Player("P2")
	require.True(t, ok)
	assert.Equal(t, connID("P2"), p.ID)
	_, ok = Snapshot{}.Player("P2")
	assert.False(t, ok)
	assert.Empty(t, Snapshot{}.CurrentExpertID())
}

func TestRequestAnswer_Visibility(t *testing.T) {
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")

	_, err := h.game.RequestAnswer(connID("P2"))
	assert.ErrorIs(t, err, ErrNotPlaying)

	h.readyAll(t)
	_, err = h.game.StartGame(connID("P1"))
	require.NoError(t, err)

	events, err := h.game.RequestAnswer(connID("P1"))
	assert.ErrorIs(t, err, ErrExpertCannotView)
	assert.Equal(t, types.EventAnswerError, events[0].Type)

	events, err = h.game.RequestAnswer(connID("P2"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, connID("P2"), events[0].To)
	assert.Equal(t, "Pizza", events[0].Payload.(AnswerPayload).Answer)
}

func TestSnapshot_NeverCarriesTopic(t *testing.T) {
	h := started(t)
	_, err := h.game.SubmitHint(connID("P2"), "cheese")
	require.NoError(t, err)

	data, err := json.Marshal(h.snapshot())
	require.NoError(t, err)
	assert.NotContains(t, strings.ToLower(string(data)), "pizza")

	events, _ := h.game.ToggleReady(connID("P3"))
	for _, e := range events {
		if e.IsBroadcast() {
			data, err := json.Marshal(e)
			require.NoError(t, err)
			assert.NotContains(t, strings.ToLower(string(data)), "pizza", e.Type)
		}
	}
}

func TestRestartGame(t *testing.T) {
	h := started(t)
	_, err := h.game.MakeGuess(connID("P1"), "pizza")
	require.NoError(t, err)
	_, err = h.game.Disconnect(connID("P3"))
	require.NoError(t, err)

	events, err := h.game.RestartGame(connID("P2"))
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, events)

	events, err = h.game.RestartGame(connID("P1"))
	require.NoError(t, err)
	assert.Len(t, ofType(events, types.EventGameRestarted), 1)

	s := h.snapshot()
	assert.Equal(t, PhaseWaiting, s.GamePhase)
	assert.Equal(t, 1, s.Round)
	assert.Nil(t, s.CurrentExpert)
	assert.Empty(t, s.Hints)
	for _, p := range append(s.Players, s.Disconnected...) {
		assert.Zero(t, p.Score, p.Nickname)
		assert.False(t, p.Ready, p.Nickname)
	}
	require.Len(t, s.Disconnected, 1)
	assert.False(t, s.Disconnected[0].Connected)

	// the pending cool-down from the old game must not advance anything
	events = h.sched.Advance(h.game.cfg.Cooldown)
	assert.Empty(t, ofType(events, types.EventNextRound))
	assert.Equal(t, PhaseWaiting, h.game.Phase())

	_, err = h.game.RestartGame(connID("P1"))
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestChat(t *testing.T) {
	h := newHarness(t)
	h.join(t, "alice")
	h.chat.messages = nil

	events, err := h.game.Chat(connID("alice"), "  hello  ")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].IsBroadcast())
	msg := events[0].Payload.(types.ChatMessage)
	assert.Equal(t, "hello", msg.Text)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Equal(t, types.ChatKindChat, msg.Kind)

	_, err = h.game.Chat(connID("alice"), strings.Repeat("é", MaxChatLength+10))
	require.NoError(t, err)
	assert.Equal(t, MaxChatLength, len([]rune(h.chat.messages[1].Text)))

	_, err = h.game.Chat("ghost", "hi")
	assert.ErrorIs(t, err, ErrUnknownPlayer)
	_, err = h.game.Chat(connID("alice"), " ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "room_full", ErrorCode(ErrRoomFull))
	assert.Equal(t, "cannot_start", ErrorCode(fmt.Errorf("%w: need more players", ErrCannotStart)))
	assert.Equal(t, "internal", ErrorCode(fmt.Errorf("boom")))
}
