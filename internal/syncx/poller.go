package syncx

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Poller owns a registry of cancellable repeating timers keyed by a logical
// target. Starting a key that is already polled cancels the previous timer
// first, so overlapping timers never accumulate for the same target.
type Poller struct {
	mu      sync.Mutex
	logger  *slog.Logger
	entries map[string]*pollEntry
}

type pollEntry struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates an empty poller registry.
func NewPoller(logger *slog.Logger) *Poller {
	return &Poller{
		logger:  logger,
		entries: make(map[string]*pollEntry),
	}
}

// Start begins polling for a key: fn runs once immediately and then every
// interval until the key is stopped or ctx is cancelled. A previous timer
// for the same key is cancelled before the new one starts.
func (p *Poller) Start(ctx context.Context, key string, interval time.Duration, fn func(context.Context)) {
	p.mu.Lock()
	if prev, ok := p.entries[key]; ok {
		prev.cancel()
		<-prev.done
	}

	ctx, cancel := context.WithCancel(ctx)
	entry := &pollEntry{cancel: cancel, done: make(chan struct{})}
	p.entries[key] = entry
	p.mu.Unlock()

	p.logger.Debug("poll started", "key", key, "interval", interval)

	go func() {
		defer close(entry.done)

		fn(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the timer for a key and waits for its loop to exit. Stopping
// an unknown key is a no-op.
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	entry, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
	}
	p.mu.Unlock()

	if !ok {
		return
	}
	entry.cancel()
	<-entry.done
	p.logger.Debug("poll stopped", "key", key)
}

// StopAll cancels every active timer. Used on teardown of the owning view.
func (p *Poller) StopAll() {
	p.mu.Lock()
	entries := p.entries
	p.entries = make(map[string]*pollEntry)
	p.mu.Unlock()

	for key, entry := range entries {
		entry.cancel()
		<-entry.done
		p.logger.Debug("poll stopped", "key", key)
	}
}

// Active reports whether a key currently has a running timer.
func (p *Poller) Active(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[key]
	return ok
}
