package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/chatlink/internal/domain/thread/entity"
)

// DirectorySyncer defines the interface for refreshing the thread directory
type DirectorySyncer interface {
	RefreshThreads(ctx context.Context, search string) []entity.Thread
}

// Scheduler drives the periodic full refresh of the thread directory.
type Scheduler struct {
	syncer   DirectorySyncer
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// Config holds configuration for the directory scheduler
type Config struct {
	Interval time.Duration
}

// New creates a new directory scheduler
func New(syncer DirectorySyncer, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}

	return &Scheduler{
		syncer:   syncer,
		interval: cfg.Interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true

	// Create a cancellable context for in-flight operations
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("thread directory scheduler started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	// Cancel in-flight operations (HTTP requests, etc.)
	if cancel != nil {
		cancel()
	}

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("thread directory scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Prime the directory right away so the first snapshot is not empty
	s.process(ctx)

	for {
		select {
		case <-ticker.C:
			s.process(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process refreshes the thread directory once
func (s *Scheduler) process(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	threads := s.syncer.RefreshThreads(ctx, "")
	s.logger.Debug("thread directory refreshed", "count", len(threads))
}
