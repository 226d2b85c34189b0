package syncx

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestPoller(t *testing.T) {
	t.Run("runs immediately then on interval", func(t *testing.T) {
		p := NewPoller(testLogger())
		defer p.StopAll()

		var calls atomic.Int64
		p.Start(context.Background(), "k", 25*time.Millisecond, func(context.Context) {
			calls.Add(1)
		})

		time.Sleep(70 * time.Millisecond)
		if got := calls.Load(); got < 2 {
			t.Fatalf("Expected immediate run plus at least one tick, got %d", got)
		}
	})

	t.Run("restart replaces the previous timer", func(t *testing.T) {
		p := NewPoller(testLogger())
		defer p.StopAll()

		var old, fresh atomic.Int64
		p.Start(context.Background(), "k", 20*time.Millisecond, func(context.Context) {
			old.Add(1)
		})
		time.Sleep(30 * time.Millisecond)

		p.Start(context.Background(), "k", 20*time.Millisecond, func(context.Context) {
			fresh.Add(1)
		})
		before := old.Load()

		time.Sleep(70 * time.Millisecond)
		if old.Load() != before {
			t.Errorf("Expected old timer cancelled, got %d then %d", before, old.Load())
		}
		if fresh.Load() < 2 {
			t.Errorf("Expected replacement timer to run, got %d", fresh.Load())
		}
	})

	t.Run("stop cancels and waits", func(t *testing.T) {
		p := NewPoller(testLogger())

		var calls atomic.Int64
		p.Start(context.Background(), "k", 20*time.Millisecond, func(context.Context) {
			calls.Add(1)
		})
		time.Sleep(30 * time.Millisecond)
		p.Stop("k")

		before := calls.Load()
		time.Sleep(60 * time.Millisecond)
		if calls.Load() != before {
			t.Fatalf("Expected no runs after stop, got %d then %d", before, calls.Load())
		}
		if p.Active("k") {
			t.Error("Expected key inactive after stop")
		}
	})

	t.Run("stop of unknown key is a no-op", func(t *testing.T) {
		p := NewPoller(testLogger())
		p.Stop("missing")
	})

	t.Run("context cancellation ends the loop", func(t *testing.T) {
		p := NewPoller(testLogger())
		defer p.StopAll()

		ctx, cancel := context.WithCancel(context.Background())
		var calls atomic.Int64
		p.Start(ctx, "k", 20*time.Millisecond, func(context.Context) {
			calls.Add(1)
		})
		time.Sleep(30 * time.Millisecond)
		cancel()

		before := calls.Load()
		time.Sleep(60 * time.Millisecond)
		if calls.Load() != before {
			t.Fatalf("Expected no runs after cancel, got %d then %d", before, calls.Load())
		}
	})

	t.Run("independent keys poll independently", func(t *testing.T) {
		p := NewPoller(testLogger())
		defer p.StopAll()

		var a, b atomic.Int64
		p.Start(context.Background(), "a", 20*time.Millisecond, func(context.Context) { a.Add(1) })
		p.Start(context.Background(), "b", 20*time.Millisecond, func(context.Context) { b.Add(1) })

		time.Sleep(30 * time.Millisecond)
		p.Stop("a")
		time.Sleep(50 * time.Millisecond)

		if !p.Active("b") {
			t.Error("Expected key b still active")
		}
		if b.Load() <= a.Load() {
			t.Errorf("Expected b to keep polling past a, got a=%d b=%d", a.Load(), b.Load())
		}
	})
}
