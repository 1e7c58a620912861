package session

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hintparty/pkg/types"
)

type fakeTask struct {
	due       time.Duration
	seq       int
	fn        func() []types.Event
	cancelled bool
	fired     bool
}

// fakeScheduler is a virtual clock; tasks fire only when the test advances it.
type fakeScheduler struct {
	now   time.Duration
	seq   int
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func() []types.Event) Cancel {
	s.seq++
	task := &fakeTask{due: s.now + d, seq: s.seq, fn: fn}
	s.tasks = append(s.tasks, task)
	return func() { task.cancelled = true }
}

// Advance moves the clock forward by d, firing due tasks in order.
func (s *fakeScheduler) Advance(d time.Duration) []types.Event {
	target := s.now + d
	var events []types.Event
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.due
		next.fired = true
		events = append(events, next.fn()...)
	}
	s.now = target
	return events
}

func (s *fakeScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) nextDue(target time.Duration) *fakeTask {
	var due []*fakeTask
	for _, t := range s.tasks {
		if !t.fired && !t.cancelled && t.due <= target {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

type recordingChat struct {
	messages []types.ChatMessage
}

func (c *recordingChat) Append(senderID, senderName, text, kind string) types.ChatMessage {
	msg := types.ChatMessage{SenderID: senderID, SenderName: senderName, Text: text, Kind: kind}
	c.messages = append(c.messages, msg)
	return msg
}

type fixedTopic struct {
	category, item string
}

func (f fixedTopic) Draw() (string, string) {
	return f.category, f.item
}

type recordingSink struct {
	results []types.GameResult
}

func (r *recordingSink) RecordResult(result types.GameResult) {
	r.results = append(r.results, result)
}

type harness struct {
	game  *Game
	sched *fakeScheduler
	chat  *recordingChat
	sink  *recordingSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{sched: &fakeScheduler{}, chat: &recordingChat{}, sink: &recordingSink{}}
	h.game = NewGame(DefaultConfig(), fixedTopic{"Food", "Pizza"}, h.chat, h.sched, WithResultSink(h.sink))
	return h
}

func connID(nickname string) string {
	return "conn-" + nickname
}

func (h *harness) join(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := h.game.Join(connID(name), name)
		require.NoError(t, err)
	}
}

func (h *harness) readyAll(t *testing.T) {
	t.Helper()
	for _, p := range h.game.reg.active {
		if !p.Ready {
			_, ready := h.game.ToggleReady(p.ID)
			require.True(t, ready)
		}
	}
}

// started returns a harness with P1, P2, P3 joined, ready and playing.
func started(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.join(t, "P1", "P2", "P3")
	h.readyAll(t)
	_, err := h.game.StartGame(connID("P1"))
	require.NoError(t, err)
	return h
}

func (h *harness) snapshot() Snapshot {
	return h.game.Snapshot()
}

func (h *harness) expertName() string {
	s := h.game.Snapshot()
	if s.CurrentExpert == nil {
		return ""
	}
	return s.CurrentExpert.Nickname
}

func ofType(events []types.Event, eventType string) []types.Event {
	var out []types.Event
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// checkInvariants asserts the properties every reachable state must satisfy.
func checkInvariants(t *testing.T, g *Game) {
	t.Helper()
	s := g.Snapshot()

	seen := map[string]bool{}
	for _, h := range s.Hints {
		require.False(t, seen[h.PlayerID], "duplicate hint from %s", h.PlayerID)
		seen[h.PlayerID] = true
		if s.CurrentExpert != nil {
			require.NotEqual(t, s.CurrentExpert.Nickname, h.PlayerName, "expert has a hint")
		}
	}

	if s.RoomLeaderID == "" {
		require.Empty(t, s.Players, "players present without a leader")
	} else {
		p := g.reg.get(s.RoomLeaderID)
		require.NotNil(t, p, "leader %s is not active", s.RoomLeaderID)
		require.True(t, p.Connected)
	}

	names := map[string]bool{}
	for _, p := range append(s.Players, s.Disconnected...) {
		require.False(t, names[p.Nickname], "nickname %s not unique", p.Nickname)
		names[p.Nickname] = true
	}
}
