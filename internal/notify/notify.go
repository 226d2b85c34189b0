package notify

import (
	"log/slog"
	"sync"
	"time"
)

// defaultKeep bounds how many notices the bus retains for readers.
const defaultKeep = 50

// Notice is one piece of user-visible error text.
type Notice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Bus is the toast surface: services push human-readable error text here
// and the presentation layer reads the recent backlog.
type Bus struct {
	mu     sync.Mutex
	logger *slog.Logger
	recent []Notice
	keep   int
}

// NewBus creates a notification bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		logger: logger,
		keep:   defaultKeep,
	}
}

// Notify records one notice.
func (b *Bus) Notify(message string) {
	b.mu.Lock()
	b.recent = append(b.recent, Notice{Message: message, At: time.Now()})
	if len(b.recent) > b.keep {
		b.recent = b.recent[len(b.recent)-b.keep:]
	}
	b.mu.Unlock()

	b.logger.Warn("user-visible error", "message", message)
}

// Recent returns a copy of the retained notices, oldest first.
func (b *Bus) Recent() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice(nil), b.recent...)
}
