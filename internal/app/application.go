package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"hintparty/internal/api"
	"hintparty/internal/chat"
	"hintparty/internal/config"
	"hintparty/internal/database"
	"hintparty/internal/hub"
	"hintparty/internal/router"
	"hintparty/internal/session"
	"hintparty/internal/topics"
	"hintparty/internal/websocket"
	"hintparty/pkg/interfaces"
	pkgdatabase "hintparty/pkg/database"
	"hintparty/pkg/types"
)

const janitorInterval = time.Minute

// Application owns every component and their lifecycle.
type Application struct {
	config      *config.Config
	store       interfaces.DatabaseManager
	persister   *hub.Persister
	chatLog     *chat.Log
	registry    *websocket.Registry
	rateLimiter *router.RateLimiter
	gameHub     *hub.Hub
	apiServer   *api.Server
	httpServer  *http.Server
	listener    net.Listener
	stopJanitor chan struct{}
}

// NewApplication builds the component graph in dependency order:
// store, persister, chat log, topics, registry, router, hub, websocket, API.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	gin.SetMode(cfg.Mode)

	var store interfaces.DatabaseManager
	if cfg.Database.Enabled {
		dbConfig := pkgdatabase.DefaultConfig()
		dbConfig.DatabasePath = cfg.Database.Path
		dbConfig.MaxConnections = cfg.Database.MaxConnections
		dbConfig.WriteQueue = cfg.Database.WriteQueue

		manager, err := database.NewManager(dbConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database manager: %w", err)
		}
		store = manager
	} else {
		log.Warn().Str("module", "app").Msg("Audit store disabled")
	}

	persister := hub.NewPersister(store, cfg.Database.WriteQueue)
	chatLog := chat.NewLog(cfg.Game.ChatCapacity, persister)
	if store != nil {
		if err := seedChat(store, chatLog, cfg); err != nil {
			log.Warn().Err(err).Str("module", "app").Msg("Could not restore chat history")
		}
	}

	catalog := topics.Default()
	if cfg.Game.TopicsFile != "" {
		loaded, err := topics.LoadFile(cfg.Game.TopicsFile)
		if err != nil {
			closeStore(store)
			return nil, fmt.Errorf("failed to load topics: %w", err)
		}
		catalog = loaded
	}
	log.Info().Str("module", "app").Int("categories", catalog.Len()).Msg("Topic catalog ready")

	registry := websocket.NewRegistry()
	rateLimiter := router.NewRateLimiter(router.RateLimitConfig{
		PerSecond: cfg.RateLimit.PerSecond,
		Burst:     cfg.RateLimit.Burst,
	})
	eventRouter := router.NewRouter(registry, rateLimiter)

	gameHub := hub.New(hub.DefaultConfig(), session.Config{
		MaxPlayers:       cfg.Game.MaxPlayers,
		MinPlayers:       cfg.Game.MinPlayers,
		MaxGuessAttempts: cfg.Game.MaxGuessAttempts,
		Cooldown:         cfg.Game.Cooldown,
		Grace:            cfg.Game.Grace,
	}, catalog, chatLog, eventRouter, persister)

	wsHandler := websocket.NewHandler(registry, gameHub, chatLog, websocket.HandlerConfig{
		PingInterval:   cfg.WebSocket.PingInterval,
		ReadTimeout:    cfg.WebSocket.ReadTimeout,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		HistorySize:    cfg.WebSocket.HistorySize,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	apiServer := api.NewServer(gameHub, chatLog, registry, store, wsHandler.HandleWebSocket, cfg.CORS.AllowedOrigins)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      apiServer,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:      cfg,
		store:       store,
		persister:   persister,
		chatLog:     chatLog,
		registry:    registry,
		rateLimiter: rateLimiter,
		gameHub:     gameHub,
		apiServer:   apiServer,
		httpServer:  httpServer,
		stopJanitor: make(chan struct{}),
	}, nil
}

func seedChat(store interfaces.DatabaseManager, chatLog *chat.Log, cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Timeout)
	defer cancel()

	stored, err := store.RecentChatMessages(ctx, cfg.Game.ChatCapacity)
	if err != nil {
		return err
	}
	messages := make([]types.ChatMessage, len(stored))
	for i, msg := range stored {
		messages[i] = *msg
	}
	chatLog.Seed(messages)
	log.Info().Str("module", "app").Int("messages", len(messages)).Msg("Chat history restored")
	return nil
}

func closeStore(store interfaces.DatabaseManager) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("Database shutdown error")
	}
}

// Start launches background workers and begins serving. It returns once the
// listener is bound.
func (app *Application) Start(ctx context.Context) error {
	app.persister.Start()
	if err := app.gameHub.Start(ctx); err != nil {
		app.persister.Stop()
		return fmt.Errorf("failed to start game hub: %w", err)
	}

	listener, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		_ = app.gameHub.Stop()
		app.persister.Stop()
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	app.listener = listener

	go app.janitor()
	go func() {
		if err := app.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("module", "app").Msg("HTTP server error")
		}
	}()

	log.Info().Str("module", "app").Str("addr", listener.Addr().String()).Msg("hintparty started")
	return nil
}

// janitor drops rate limiter buckets for connections idle past the TTL.
func (app *Application) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			app.rateLimiter.Cleanup(app.config.RateLimit.IdleTTL)
		case <-app.stopJanitor:
			return
		}
	}
}

// Stop shuts down in reverse dependency order: HTTP, sockets, hub,
// persister, store.
func (app *Application) Stop(ctx context.Context) error {
	log.Info().Str("module", "app").Msg("Shutting down hintparty")

	if err := app.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("HTTP server shutdown error")
	}
	app.registry.CloseAll()
	close(app.stopJanitor)

	if err := app.gameHub.Stop(); err != nil {
		log.Error().Err(err).Str("module", "app").Msg("Game hub shutdown error")
	}
	app.persister.Stop()
	closeStore(app.store)

	log.Info().Str("module", "app").Msg("Shutdown complete")
	return nil
}

// Addr is the bound listen address once started, else the configured one.
func (app *Application) Addr() string {
	if app.listener != nil {
		return app.listener.Addr().String()
	}
	return app.httpServer.Addr
}
