// Package hub owns the session.Game. One goroutine applies client intents and
// timer callbacks in arrival order, so the game itself needs no locks.
package hub

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"hintparty/internal/session"
	"hintparty/pkg/interfaces"
	"hintparty/pkg/types"
)

// Config sizes the hub queues.
type Config struct {
	IntentBuffer int
	TaskBuffer   int
}

// DefaultConfig returns the standard queue sizes.
func DefaultConfig() Config {
	return Config{IntentBuffer: 1000, TaskBuffer: 100}
}

// Hub serializes every mutation of the game.
type Hub struct {
	game   *session.Game
	router interfaces.EventRouter

	intents  chan types.Intent
	tasks    chan func() []types.Event
	shutdown chan struct{}
	done     chan struct{}

	snapshot atomic.Pointer[session.Snapshot]

	running bool
	mu      sync.RWMutex
}

// New builds the hub and the game it owns. results may be nil.
func New(cfg Config, gameCfg session.Config, topics session.TopicSource, chatLog session.ChatLog, router interfaces.EventRouter, results session.ResultSink) *Hub {
	h := &Hub{
		router:   router,
		intents:  make(chan types.Intent, cfg.IntentBuffer),
		tasks:    make(chan func() []types.Event, cfg.TaskBuffer),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	var opts []session.Option
	if results != nil {
		opts = append(opts, session.WithResultSink(results))
	}
	h.game = session.NewGame(gameCfg, topics, chatLog, h, opts...)
	h.publish()
	return h
}

// Start launches the hub goroutine. A stopped hub cannot be restarted.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrHubAlreadyRunning
	}
	select {
	case <-h.shutdown:
		return ErrHubStopped
	default:
	}
	h.running = true

	log.Info().Str("module", "hub").Msg("Starting game hub")
	go h.run(ctx)
	return nil
}

// Stop ends the hub goroutine and waits for it. Pending timers become no-ops.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return ErrHubNotRunning
	}
	h.running = false
	close(h.shutdown)
	h.mu.Unlock()

	log.Info().Str("module", "hub").Msg("Stopping game hub")
	<-h.done
	return nil
}

// Submit queues a client intent. Disconnects are never dropped or throttled;
// other intents are rejected when the sender is over its rate or the queue is
// full.
func (h *Hub) Submit(intent types.Intent) error {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		return ErrHubNotRunning
	}

	if intent.Type == types.IntentDisconnected {
		select {
		case h.intents <- intent:
			return nil
		case <-h.shutdown:
			return ErrHubNotRunning
		}
	}

	if !h.router.Allow(intent.ConnID) {
		return ErrRateLimited
	}
	select {
	case h.intents <- intent:
		return nil
	default:
		return ErrIntentChannelFull
	}
}

// Snapshot returns the state published after the latest mutation. Safe from
// any goroutine.
func (h *Hub) Snapshot() session.Snapshot {
	return *h.snapshot.Load()
}

// AfterFunc implements session.Scheduler. The callback is re-queued onto the
// hub goroutine; once cancel is called, from the hub goroutine, it never runs.
func (h *Hub) AfterFunc(d time.Duration, fn func() []types.Event) session.Cancel {
	var cancelled atomic.Bool
	timer := time.AfterFunc(d, func() {
		task := func() []types.Event {
			if cancelled.Load() {
				return nil
			}
			return fn()
		}
		select {
		case h.tasks <- task:
		case <-h.shutdown:
		}
	})
	return func() {
		cancelled.Store(true)
		timer.Stop()
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)
	defer log.Info().Str("module", "hub").Msg("Hub processing stopped")

	for {
		select {
		case intent := <-h.intents:
			h.handleIntent(intent)

		case task := <-h.tasks:
			h.deliver(task())

		case <-h.shutdown:
			return

		case <-ctx.Done():
			log.Info().Str("module", "hub").Msg("Hub context cancelled")
			return
		}
	}
}

func (h *Hub) handleIntent(intent types.Intent) {
	var (
		events []types.Event
		err    error
	)

	switch intent.Type {
	case types.IntentJoin:
		events, err = h.game.Join(intent.ConnID, intent.Data)
	case types.IntentToggleReady:
		events, _ = h.game.ToggleReady(intent.ConnID)
	case types.IntentStartGame:
		events, err = h.game.StartGame(intent.ConnID)
	case types.IntentSubmitHint:
		events, err = h.game.SubmitHint(intent.ConnID, intent.Data)
	case types.IntentMakeGuess:
		events, err = h.game.MakeGuess(intent.ConnID, intent.Data)
	case types.IntentRestartGame:
		events, err = h.game.RestartGame(intent.ConnID)
	case types.IntentGetAnswer:
		events, err = h.game.RequestAnswer(intent.ConnID)
	case types.IntentChatMessage:
		events, err = h.game.Chat(intent.ConnID, intent.Data)
	case types.IntentDisconnected:
		events, err = h.game.Disconnect(intent.ConnID)
		h.router.Forget(intent.ConnID)
		if errors.Is(err, session.ErrUnknownPlayer) {
			// spectator that never joined
			err = nil
		}
	default:
		log.Warn().Str("module", "hub").Str("type", intent.Type).Msg("Unknown intent type")
		return
	}

	if err != nil {
		log.Debug().Err(err).Str("module", "hub").Str("conn_id", intent.ConnID).Str("type", intent.Type).Msg("Intent rejected")
	}
	h.deliver(events)
}

// deliver publishes the new snapshot before handing events to the router so
// HTTP readers never lag behind what clients were told.
func (h *Hub) deliver(events []types.Event) {
	if len(events) == 0 {
		return
	}
	h.publish()
	h.router.Deliver(events)
}

func (h *Hub) publish() {
	s := h.game.Snapshot()
	h.snapshot.Store(&s)
}
