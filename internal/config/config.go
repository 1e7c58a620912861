package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. HINTPARTY_HTTP_PORT.
const EnvPrefix = "HINTPARTY"

// ConfigFileEnv names an optional YAML or JSON config file.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

type Config struct {
	Mode      string           `mapstructure:"mode"`
	Log       *LogConfig       `mapstructure:"log"`
	HTTP      *HTTPConfig      `mapstructure:"http"`
	WebSocket *WebSocketConfig `mapstructure:"websocket"`
	CORS      *CORSConfig      `mapstructure:"cors"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	Game      *GameConfig      `mapstructure:"game"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type HTTPConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	HistorySize    int           `mapstructure:"history_size"`
}

// CORSConfig lists browser origins allowed to call the API and open sockets.
// Empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Path           string        `mapstructure:"path"`
	MaxConnections int           `mapstructure:"max_connections"`
	WriteQueue     int           `mapstructure:"write_queue"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type GameConfig struct {
	MaxPlayers       int           `mapstructure:"max_players"`
	MinPlayers       int           `mapstructure:"min_players"`
	MaxGuessAttempts int           `mapstructure:"max_guess_attempts"`
	Cooldown         time.Duration `mapstructure:"cooldown"`
	Grace            time.Duration `mapstructure:"grace"`
	ChatCapacity     int           `mapstructure:"chat_capacity"`
	TopicsFile       string        `mapstructure:"topics_file"`
}

type RateLimitConfig struct {
	PerSecond float64       `mapstructure:"per_second"`
	Burst     int           `mapstructure:"burst"`
	IdleTTL   time.Duration `mapstructure:"idle_ttl"`
}

var defaults = map[string]any{
	"mode": "release",

	"log.level":  "info",
	"log.pretty": false,

	"http.host":             "0.0.0.0",
	"http.port":             8080,
	"http.read_timeout":     "30s",
	"http.write_timeout":    "30s",
	"http.shutdown_timeout": "10s",

	"websocket.ping_interval":    "30s",
	"websocket.read_timeout":     "60s",
	"websocket.max_message_size": 4096,
	"websocket.history_size":     20,

	"cors.allowed_origins": []string{},

	"database.enabled":         true,
	"database.path":            "./data/hintparty.db",
	"database.max_connections": 10,
	"database.write_queue":     100,
	"database.timeout":         "30s",

	"game.max_players":        8,
	"game.min_players":        3,
	"game.max_guess_attempts": 3,
	"game.cooldown":           "3s",
	"game.grace":              "30s",
	"game.chat_capacity":      50,
	"game.topics_file":        "",

	"rate_limit.per_second": 5.0,
	"rate_limit.burst":      10,
	"rate_limit.idle_ttl":   "10m",
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns the built-in settings with no file or environment applied.
func DefaultConfig() *Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: bad defaults: %v", err))
	}
	return &cfg
}

// Load resolves configuration: defaults, then the file named by
// HINTPARTY_CONFIG_FILE if set, then HINTPARTY_* environment variables.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file. An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) Validate() error {
	if c.Mode != "release" && c.Mode != "debug" && c.Mode != "test" {
		return fmt.Errorf("mode must be release, debug or test, got %q", c.Mode)
	}

	if c.Log == nil {
		return errors.New("log configuration is required")
	}

	if c.HTTP == nil {
		return errors.New("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return errors.New("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 || c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("HTTP timeouts must be positive")
	}

	if c.WebSocket == nil {
		return errors.New("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 {
		return errors.New("WebSocket ping interval must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return errors.New("WebSocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.MaxMessageSize <= 0 {
		return errors.New("WebSocket max message size must be positive")
	}
	if c.WebSocket.HistorySize < 0 {
		return errors.New("WebSocket history size cannot be negative")
	}

	if c.CORS == nil {
		return errors.New("CORS configuration is required")
	}

	if c.Database == nil {
		return errors.New("database configuration is required")
	}
	if c.Database.Enabled {
		if c.Database.Path == "" {
			return errors.New("database path cannot be empty")
		}
		if c.Database.MaxConnections <= 0 || c.Database.WriteQueue <= 0 {
			return errors.New("database pool and queue sizes must be positive")
		}
		if c.Database.Timeout <= 0 {
			return errors.New("database timeout must be positive")
		}
	}

	if c.Game == nil {
		return errors.New("game configuration is required")
	}
	if c.Game.MinPlayers < 2 {
		return errors.New("game needs at least 2 players")
	}
	if c.Game.MaxPlayers < c.Game.MinPlayers {
		return errors.New("game max players must be at least min players")
	}
	if c.Game.MaxGuessAttempts <= 0 {
		return errors.New("game max guess attempts must be positive")
	}
	if c.Game.Cooldown < 0 || c.Game.Grace < 0 {
		return errors.New("game timers cannot be negative")
	}
	if c.Game.ChatCapacity <= 0 {
		return errors.New("game chat capacity must be positive")
	}

	if c.RateLimit == nil {
		return errors.New("rate limit configuration is required")
	}
	if c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("rate limit must allow at least one message")
	}
	if c.RateLimit.IdleTTL <= 0 {
		return errors.New("rate limit idle TTL must be positive")
	}

	return nil
}
