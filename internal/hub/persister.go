package hub

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hintparty/pkg/interfaces"
	"hintparty/pkg/types"
)

const persistTimeout = 5 * time.Second

type persistJob func(ctx context.Context) error

// Persister writes chat messages and game results to the audit store on its
// own goroutine so the hub never waits on disk. A nil store disables it.
type Persister struct {
	store interfaces.DatabaseManager
	jobs  chan persistJob
	wg    sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPersister creates a persister with a queue of buffer jobs.
func NewPersister(store interfaces.DatabaseManager, buffer int) *Persister {
	return &Persister{
		store: store,
		jobs:  make(chan persistJob, buffer),
	}
}

// Start launches the writer goroutine.
func (p *Persister) Start() {
	if p.store == nil {
		return
	}
	p.wg.Add(1)
	go p.run()
}

// Stop drains queued jobs and waits for the writer.
func (p *Persister) Stop() {
	if p.store == nil {
		return
	}
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobs)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// ChatAppended implements chat.Sink.
func (p *Persister) ChatAppended(msg types.ChatMessage) {
	p.enqueue("chat message", func(ctx context.Context) error {
		return p.store.StoreChatMessage(ctx, &msg)
	})
}

// RecordResult implements session.ResultSink.
func (p *Persister) RecordResult(result types.GameResult) {
	p.enqueue("game result", func(ctx context.Context) error {
		return p.store.StoreGameResult(ctx, &result)
	})
}

func (p *Persister) enqueue(what string, job persistJob) {
	if p.store == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		log.Warn().Str("module", "persister").Str("what", what).Msg("Persister stopped, dropping write")
		return
	}
	select {
	case p.jobs <- job:
	default:
		log.Warn().Str("module", "persister").Str("what", what).Msg("Persist queue full, dropping write")
	}
}

func (p *Persister) run() {
	defer p.wg.Done()
	for job := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := job(ctx); err != nil {
			log.Error().Err(err).Str("module", "persister").Msg("Audit write failed")
		}
		cancel()
	}
}
