package database

import (
	"errors"
	"time"
)

// Config holds audit store settings.
type Config struct {
	DatabasePath    string        `json:"database_path" mapstructure:"path"`
	MaxConnections  int           `json:"max_connections" mapstructure:"max_connections"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" mapstructure:"conn_max_idle_time"`
	WriteQueue      int           `json:"write_queue" mapstructure:"write_queue"`
}

// DefaultConfig returns settings suited to a single-room server.
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    "./data/hintparty.db",
		MaxConnections:  10,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 10 * time.Minute,
		WriteQueue:      100,
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.New("database path cannot be empty")
	}
	if c.MaxConnections <= 0 {
		return errors.New("max connections must be greater than 0")
	}
	if c.ConnMaxLifetime <= 0 {
		return errors.New("connection max lifetime must be greater than 0")
	}
	if c.ConnMaxIdleTime <= 0 {
		return errors.New("connection max idle time must be greater than 0")
	}
	if c.WriteQueue <= 0 {
		return errors.New("write queue must be greater than 0")
	}
	return nil
}

// DSN is the go-sqlite3 connection string for DatabasePath.
func (c *Config) DSN() string {
	return c.DatabasePath + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}
