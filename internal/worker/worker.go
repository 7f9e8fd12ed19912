// Package worker runs sync jobs with bounded concurrency.
package worker

import (
	"context"
	"sync"

	"github.com/DeinAlptraum/usdb-syncer/internal/domain"
	"github.com/DeinAlptraum/usdb-syncer/internal/logger"
	"github.com/DeinAlptraum/usdb-syncer/internal/syncer"
)

// Pool distributes song sync jobs over a fixed number of workers. A song
// already queued or being synced is not enqueued a second time.
type Pool struct {
	syncer        *syncer.Syncer
	maxConcurrent int
	log           *logger.Logger

	queue  chan domain.SongId
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[domain.SongId]struct{}
}

func NewPool(s *syncer.Syncer, maxConcurrent int, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		syncer:        s,
		maxConcurrent: maxConcurrent,
		log:           log.WithComponent("worker"),
		queue:         make(chan domain.SongId, 1024),
		ctx:           ctx,
		cancel:        cancel,
		inflight:      map[domain.SongId]struct{}{},
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.log.Info("Starting workers", "count", p.maxConcurrent)
	for i := 0; i < p.maxConcurrent; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

// Stop cancels running jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	p.log.Info("Stopping workers")
	p.cancel()
	p.wg.Wait()
}

// Enqueue schedules a song for synchronization. Returns false if the song
// is already queued or running, or the queue is full.
func (p *Pool) Enqueue(songID domain.SongId) bool {
	p.mu.Lock()
	if _, ok := p.inflight[songID]; ok {
		p.mu.Unlock()
		return false
	}
	p.inflight[songID] = struct{}{}
	p.mu.Unlock()

	select {
	case p.queue <- songID:
		return true
	default:
		p.forget(songID)
		p.log.Warn("Queue full, rejecting job", "song_id", songID)
		return false
	}
}

// Pending returns the number of songs queued or running.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case songID := <-p.queue:
			p.runJob(songID)
		}
	}
}

func (p *Pool) runJob(songID domain.SongId) {
	defer p.forget(songID)
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Panic in sync job", "song_id", songID, "panic", r)
		}
	}()
	if err := p.syncer.SyncSong(p.ctx, songID); err != nil {
		p.log.Error("Sync job failed", "song_id", songID, "error", err)
	}
}

func (p *Pool) forget(songID domain.SongId) {
	p.mu.Lock()
	delete(p.inflight, songID)
	p.mu.Unlock()
}
