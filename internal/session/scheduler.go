package session

import (
	"time"

	"hintparty/pkg/types"
)

// Cancel stops a scheduled callback. Calling it after the callback ran, or
// more than once, is a no-op.
type Cancel func()

// Scheduler runs deferred work. Implementations must invoke fn on the same
// goroutine that owns the Game, never concurrently with other Game calls,
// and deliver the events it returns.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func() []types.Event) Cancel
}

// ChatLog receives the system and game messages the session emits.
type ChatLog interface {
	Append(senderID, senderName, text, kind string) types.ChatMessage
}

// ResultSink records finished games.
type ResultSink interface {
	RecordResult(result types.GameResult)
}
