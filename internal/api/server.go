// Package api serves the read-only HTTP endpoints and mounts the websocket
// upgrade route.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"hintparty/internal/session"
	"hintparty/pkg/interfaces"
	"hintparty/pkg/types"
)

const (
	defaultLimit = 20
	maxLimit     = 200
)

// StateSource exposes the latest published game snapshot.
type StateSource interface {
	Snapshot() session.Snapshot
}

// HistorySource exposes the in-memory chat log.
type HistorySource interface {
	Recent(n int) []types.ChatMessage
}

// StatsSource reports connection statistics.
type StatsSource interface {
	GetStats() map[string]int
}

// Server wires HTTP routes to the game. store may be nil when persistence is
// disabled.
type Server struct {
	state     StateSource
	history   HistorySource
	stats     StatsSource
	store     interfaces.DatabaseManager
	engine    *gin.Engine
	startedAt time.Time
}

type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Uptime      string         `json:"uptime"`
	Database    string         `json:"database"`
	Connections map[string]int `json:"connections"`
	GamePhase   session.Phase  `json:"gamePhase"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer builds the gin engine. ws handles GET /ws.
func NewServer(state StateSource, history HistorySource, stats StatsSource, store interfaces.DatabaseManager, ws http.HandlerFunc, allowedOrigins []string) *Server {
	s := &Server{
		state:     state,
		history:   history,
		stats:     stats,
		store:     store,
		engine:    gin.New(),
		startedAt: time.Now(),
	}

	s.engine.Use(gin.Recovery(), requestLogger())
	s.engine.Use(cors.New(corsConfig(allowedOrigins)))

	s.engine.GET("/health", s.healthCheck)
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/game-state", s.gameState)
		api.GET("/chat-history", s.chatHistory)
		api.GET("/results", s.results)
	}
	if ws != nil {
		s.engine.GET("/ws", gin.WrapF(ws))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("module", "api").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, dbStatus := "healthy", "disabled"
	if s.store != nil {
		dbStatus = "healthy"
		if err := s.store.HealthCheck(ctx); err != nil {
			status = "unhealthy"
			dbStatus = "error: " + err.Error()
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{
		Status:      status,
		Timestamp:   time.Now(),
		Uptime:      time.Since(s.startedAt).Round(time.Second).String(),
		Database:    dbStatus,
		Connections: s.stats.GetStats(),
		GamePhase:   s.state.Snapshot().GamePhase,
	})
}

func (s *Server) gameState(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Snapshot())
}

func (s *Server) chatHistory(c *gin.Context) {
	limit, ok := s.limit(c)
	if !ok {
		return
	}
	messages := s.history.Recent(limit)
	if messages == nil {
		messages = []types.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) results(c *gin.Context) {
	limit, ok := s.limit(c)
	if !ok {
		return
	}
	if s.store == nil {
		s.sendError(c, http.StatusServiceUnavailable, interfaces.ErrStoreDisabled.Error())
		return
	}

	results, err := s.store.RecentGameResults(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, interfaces.ErrStoreDisabled) {
			s.sendError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		log.Error().Err(err).Str("module", "api").Msg("Failed to load game results")
		s.sendError(c, http.StatusInternalServerError, "failed to load game results")
		return
	}
	if results == nil {
		results = []*types.GameResult{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) limit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		s.sendError(c, http.StatusBadRequest, "limit must be a positive integer")
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}

func (s *Server) sendError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}
