package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	dbconfig "hintparty/pkg/database"
	"hintparty/pkg/types"
)

var (
	ErrManagerClosed = errors.New("database manager is closed")
	ErrWriteTimeout  = errors.New("write operation timeout")
)

const (
	writeTimeout = 30 * time.Second
	retryTimeout = 5 * time.Second
)

// Manager is the SQLite audit store. Reads run concurrently on the pool; all
// writes go through a single goroutine.
type Manager struct {
	db           *sql.DB
	config       *dbconfig.Config
	writeChannel chan writeOperation
	shutdown     chan struct{}
	wg           sync.WaitGroup
	closed       bool
	mu           sync.RWMutex
	retryDelay   time.Duration
}

type writeOperation struct {
	ctx       context.Context
	operation func(context.Context, *sql.DB) error
	result    chan error
}

// NewManager opens the database, applies migrations and starts the writer.
func NewManager(config *dbconfig.Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	if dir := filepath.Dir(config.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := applySQLiteOptimizations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply SQLite optimizations: %w", err)
	}

	migrations := dbconfig.NewMigrationManager(db)
	if err := migrations.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	if err := migrations.ValidateSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	m := &Manager{
		db:           db,
		config:       config,
		writeChannel: make(chan writeOperation, config.WriteQueue),
		shutdown:     make(chan struct{}),
		retryDelay:   500 * time.Millisecond,
	}
	m.wg.Add(1)
	go m.writeLoop()

	log.Info().Str("module", "database").Str("path", config.DatabasePath).Msg("Audit store opened")
	return m, nil
}

// writeLoop runs every write; a failed write is retried once after retryDelay
// on a fresh context, since the caller's may have expired by then.
func (m *Manager) writeLoop() {
	defer m.wg.Done()

	for {
		select {
		case op := <-m.writeChannel:
			err := op.operation(op.ctx, m.db)
			if err != nil {
				log.Warn().Err(err).Str("module", "database").Dur("retry_in", m.retryDelay).Msg("Database write failed, retrying")
				time.Sleep(m.retryDelay)
				err = m.retry(op)
			}
			op.result <- err

		case <-m.shutdown:
			log.Debug().Str("module", "database").Msg("Database write loop shutting down")
			return
		}
	}
}

func (m *Manager) retry(op writeOperation) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(op.ctx), retryTimeout)
	defer cancel()
	err := op.operation(ctx, m.db)
	if err != nil {
		log.Error().Err(err).Str("module", "database").Msg("Database write failed after retry")
	}
	return err
}

func (m *Manager) executeWrite(ctx context.Context, operation func(context.Context, *sql.DB) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrManagerClosed
	}
	m.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case m.writeChannel <- writeOperation{ctx: ctx, operation: operation, result: result}:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(writeTimeout):
		return ErrWriteTimeout
	case <-m.shutdown:
		return ErrManagerClosed
	}

	select {
	case err := <-result:
		return err
	case <-m.shutdown:
		return ErrManagerClosed
	}
}

// StoreChatMessage inserts one chat log entry. Re-storing an id is a no-op.
func (m *Manager) StoreChatMessage(ctx context.Context, message *types.ChatMessage) error {
	return m.executeWrite(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT OR IGNORE INTO chat_messages (id, sender_id, sender_name, text, kind, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			message.ID,
			message.SenderID,
			message.SenderName,
			message.Text,
			message.Kind,
			message.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chat message: %w", err)
		}
		return nil
	})
}

// RecentChatMessages returns the newest limit messages, oldest first.
func (m *Manager) RecentChatMessages(ctx context.Context, limit int) ([]*types.ChatMessage, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, sender_id, sender_name, text, kind, created_at FROM (
			SELECT id, sender_id, sender_name, text, kind, created_at, rowid
			FROM chat_messages
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, rowid ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*types.ChatMessage
	for rows.Next() {
		var msg types.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderName, &msg.Text, &msg.Kind, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat message rows: %w", err)
	}
	return messages, nil
}

// StoreGameResult inserts a finished game. Standings are stored as JSON.
func (m *Manager) StoreGameResult(ctx context.Context, result *types.GameResult) error {
	standingsJSON, err := json.Marshal(result.Standings)
	if err != nil {
		return fmt.Errorf("failed to marshal standings: %w", err)
	}

	return m.executeWrite(ctx, func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO game_results (id, started_at, finished_at, turns, standings)
			VALUES (?, ?, ?, ?, ?)
		`,
			result.ID,
			result.StartedAt.UTC(),
			result.FinishedAt.UTC(),
			result.Turns,
			string(standingsJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert game result: %w", err)
		}
		return nil
	})
}

// RecentGameResults returns up to limit finished games, newest first.
func (m *Manager) RecentGameResults(ctx context.Context, limit int) ([]*types.GameResult, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, turns, standings
		FROM game_results
		ORDER BY finished_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*types.GameResult
	for rows.Next() {
		var (
			result        types.GameResult
			standingsJSON string
		)
		if err := rows.Scan(&result.ID, &result.StartedAt, &result.FinishedAt, &result.Turns, &standingsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan game result row: %w", err)
		}
		if err := json.Unmarshal([]byte(standingsJSON), &result.Standings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal standings: %w", err)
		}
		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game result rows: %w", err)
	}
	return results, nil
}

// HealthCheck pings the database and runs a trivial read.
func (m *Manager) HealthCheck(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var n int
	if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM game_results").Scan(&n); err != nil {
		return fmt.Errorf("database read test failed: %w", err)
	}
	return nil
}

// Close stops the writer and closes the database. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	close(m.shutdown)
	m.wg.Wait()

	if err := m.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Info().Str("module", "database").Msg("Audit store closed")
	return nil
}

func applySQLiteOptimizations(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}
	return nil
}
