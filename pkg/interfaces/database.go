package interfaces

import (
	"context"

	"hintparty/pkg/types"
)

// DatabaseManager is the audit store: chat history and finished games.
// Live session state is never persisted.
type DatabaseManager interface {
	// StoreChatMessage persists one chat log entry.
	StoreChatMessage(ctx context.Context, message *types.ChatMessage) error

	// RecentChatMessages returns up to limit entries, oldest first.
	RecentChatMessages(ctx context.Context, limit int) ([]*types.ChatMessage, error)

	// StoreGameResult persists a finished game with its standings.
	StoreGameResult(ctx context.Context, result *types.GameResult) error

	// RecentGameResults returns up to limit finished games, newest first.
	RecentGameResults(ctx context.Context, limit int) ([]*types.GameResult, error)

	// HealthCheck verifies the database is reachable.
	HealthCheck(ctx context.Context) error

	// Close flushes pending writes and closes the database.
	Close() error
}
