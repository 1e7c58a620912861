// Package chat keeps the bounded in-memory chat log shared by players and the
// game announcer.
package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"hintparty/pkg/types"
)

// DefaultCapacity is how many messages the log keeps before evicting the oldest.
const DefaultCapacity = 50

// Sink receives every appended message, e.g. for persistence. It must not block.
type Sink interface {
	ChatAppended(msg types.ChatMessage)
}

// Log is a bounded append-only buffer. Safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	capacity int
	messages []types.ChatMessage
	sink     Sink
	now      func() time.Time
}

// NewLog creates a log holding at most capacity messages. sink may be nil.
func NewLog(capacity int, sink Sink) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		messages: make([]types.ChatMessage, 0, capacity),
		sink:     sink,
		now:      time.Now,
	}
}

// Append stores a message, evicting the oldest when full, and returns it.
func (l *Log) Append(senderID, senderName, text, kind string) types.ChatMessage {
	if !types.IsValidChatKind(kind) {
		kind = types.ChatKindChat
	}
	msg := types.ChatMessage{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		Kind:       kind,
		Timestamp:  l.now(),
	}

	l.mu.Lock()
	if len(l.messages) == l.capacity {
		copy(l.messages, l.messages[1:])
		l.messages = l.messages[:l.capacity-1]
	}
	l.messages = append(l.messages, msg)
	l.mu.Unlock()

	if l.sink != nil {
		l.sink.ChatAppended(msg)
	}
	return msg
}

// Recent returns up to n of the newest messages, oldest first.
func (l *Log) Recent(n int) []types.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 || n > len(l.messages) {
		n = len(l.messages)
	}
	return append([]types.ChatMessage{}, l.messages[len(l.messages)-n:]...)
}

// Seed preloads messages, e.g. history read back from the audit store.
// Only the newest capacity messages are kept; the sink is not notified.
func (l *Log) Seed(messages []types.ChatMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(messages) > l.capacity {
		messages = messages[len(messages)-l.capacity:]
	}
	l.messages = append(l.messages[:0], messages...)
}

// Len is the number of buffered messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
