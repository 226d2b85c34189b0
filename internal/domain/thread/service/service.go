package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vadim/chatlink/internal/domain/thread/entity"
	"github.com/vadim/chatlink/internal/domain/thread/store"
	"github.com/vadim/chatlink/internal/syncx"
)

// ChatAPI defines the backend operations the thread engine consumes. The
// interface lives here (consumer), not in the upstream package (provider).
type ChatAPI interface {
	ListThreads(ctx context.Context, role entity.Role, search string, limit int) ([]entity.Thread, error)
	CreateThread(ctx context.Context, personaID, originPostID int64) (entity.Thread, *entity.Counts, error)
	PatchThread(ctx context.Context, in PatchInput) (entity.ThreadPatch, *entity.Counts, error)
	DeleteThread(ctx context.Context, threadID string) (*entity.Counts, error)
	ListMessages(ctx context.Context, threadID string, limit int, after int64) ([]entity.Message, error)
	SendMessage(ctx context.Context, threadID, text string) (entity.Message, *entity.Counts, error)
	SendMediaMessage(ctx context.Context, in MediaInput) (entity.Message, *entity.Counts, error)
	DeleteMessage(ctx context.Context, threadID string, messageID int64) (*entity.Counts, error)
}

// Notifier surfaces human-readable error text for user-initiated actions.
type Notifier interface {
	Notify(message string)
}

// HumanMessager is implemented by upstream errors that carry displayable
// text extracted from the error payload.
type HumanMessager interface {
	HumanMessage() string
}

// PatchInput represents a partial thread update
type PatchInput struct {
	ThreadID     string
	IsFavorite   *bool
	IsLocked     *bool
	PersonaID    *int64
	OverrideLock bool
}

// MediaInput represents an outgoing media message
type MediaInput struct {
	ThreadID  string
	FileName  string
	Media     io.Reader
	MediaType string
	Caption   string
}

// Config holds thread engine configuration
type Config struct {
	Role                entity.Role
	PageLimit           int
	DebounceQuiet       time.Duration
	MessagePollInterval time.Duration
}

// Service orchestrates fetching and reconciliation for the thread
// directory and per-thread message logs. Transport failures on reads are
// absorbed here: the caller always gets the last-known-good local state.
type Service struct {
	api      ChatAPI
	store    *store.Store
	notifier Notifier
	logger   *slog.Logger

	role                entity.Role
	pageLimit           int
	messagePollInterval time.Duration

	search *syncx.Debouncer
	poller *syncx.Poller
}

// New creates a thread engine bound to one viewing role.
func New(api ChatAPI, st *store.Store, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 50
	}
	if cfg.DebounceQuiet <= 0 {
		cfg.DebounceQuiet = 400 * time.Millisecond
	}
	if cfg.MessagePollInterval <= 0 {
		cfg.MessagePollInterval = 5 * time.Second
	}
	if cfg.Role == "" {
		cfg.Role = entity.RoleUser
	}

	s := &Service{
		api:                 api,
		store:               st,
		notifier:            notifier,
		logger:              logger,
		role:                cfg.Role,
		pageLimit:           cfg.PageLimit,
		messagePollInterval: cfg.MessagePollInterval,
		poller:              syncx.NewPoller(logger),
	}
	s.search = syncx.NewDebouncer(cfg.DebounceQuiet, func(term string) {
		s.RefreshThreads(context.Background(), term)
	})
	return s
}

// Store exposes the underlying state cell for read-only snapshot access.
func (s *Service) Store() *store.Store { return s.store }

// RefreshThreads replaces the thread directory from a full list fetch,
// optionally filtered by a search term. On transport failure the previous
// directory is returned unchanged; a transient network error never clears
// visible state.
func (s *Service) RefreshThreads(ctx context.Context, search string) []entity.Thread {
	threads, err := s.api.ListThreads(ctx, s.role, search, s.pageLimit)
	if err != nil {
		s.logger.Warn("thread list fetch failed, keeping local state", "error", err)
		return s.store.Threads()
	}
	s.store.ReplaceThreads(threads)
	return s.store.Threads()
}

// SetSearchTerm records a new search input. Rapid typing is debounced so at
// most one list re-fetch is issued per quiet interval.
func (s *Service) SetSearchTerm(term string) {
	s.search.Trigger(term)
}

// SyncMessages merges new activity for a thread into its local log. An
// existing watermark scopes the fetch to newer messages and merges
// incrementally; no watermark, or force, fetches and replaces the full
// window. On transport failure the current local log is returned unchanged.
func (s *Service) SyncMessages(ctx context.Context, threadID string, force bool) []entity.Message {
	var after int64
	incremental := false
	if !force {
		if wm, ok := s.store.Watermark(threadID); ok {
			after = wm
			incremental = true
		}
	}

	batch, err := s.api.ListMessages(ctx, threadID, s.pageLimit, after)
	if err != nil {
		s.logger.Warn("message fetch failed, keeping local log", "thread_id", threadID, "error", err)
		return s.store.Messages(threadID)
	}

	return s.store.MergeMessages(threadID, batch, incremental)
}

// OpenThread starts the catch-up poll for a thread. Opening an already-open
// thread restarts its timer; timers never accumulate per thread.
func (s *Service) OpenThread(ctx context.Context, threadID string) {
	s.poller.Start(ctx, "thread:"+threadID, s.messagePollInterval, func(ctx context.Context) {
		s.SyncMessages(ctx, threadID, false)
	})
}

// CloseThread cancels the catch-up poll for a thread.
func (s *Service) CloseThread(threadID string) {
	s.poller.Stop("thread:" + threadID)
}

// Close tears down all polling and any armed search debounce.
func (s *Service) Close() {
	s.search.Stop()
	s.poller.StopAll()
}

// StartThread creates a new conversation, seeded either with a persona or
// from a feed post, and inserts it into the local directory.
func (s *Service) StartThread(ctx context.Context, personaID, originPostID int64) (entity.Thread, error) {
	thread, counts, err := s.api.CreateThread(ctx, personaID, originPostID)
	if err != nil {
		s.notifyError(err)
		return entity.Thread{}, fmt.Errorf("creating thread: %w", err)
	}
	s.store.UpsertThread(thread)
	s.store.SetCounts(counts)
	return thread, nil
}

// SendMessage sends a text message and merges the server echo into the log
// as a one-element incremental batch, so it slots into its correct position
// and becomes the new watermark.
func (s *Service) SendMessage(ctx context.Context, threadID, text string) (entity.Message, error) {
	if err := entity.ValidateMessageText(text); err != nil {
		return entity.Message{}, err
	}

	msg, counts, err := s.api.SendMessage(ctx, threadID, text)
	if err != nil {
		s.notifyError(err)
		return entity.Message{}, fmt.Errorf("sending message: %w", err)
	}

	s.store.MergeMessages(threadID, []entity.Message{msg}, true)
	s.store.SetCounts(counts)
	return msg, nil
}

// SendMediaMessage sends a media message and merges the server echo.
func (s *Service) SendMediaMessage(ctx context.Context, in MediaInput) (entity.Message, error) {
	if in.Media == nil {
		return entity.Message{}, entity.ErrMediaRequired
	}

	msg, counts, err := s.api.SendMediaMessage(ctx, in)
	if err != nil {
		s.notifyError(err)
		return entity.Message{}, fmt.Errorf("sending media message: %w", err)
	}

	s.store.MergeMessages(in.ThreadID, []entity.Message{msg}, true)
	s.store.SetCounts(counts)
	return msg, nil
}

// DeleteMessage removes a message for everyone. Local state changes only
// after the backend confirms.
func (s *Service) DeleteMessage(ctx context.Context, threadID string, messageID int64) error {
	counts, err := s.api.DeleteMessage(ctx, threadID, messageID)
	if err != nil {
		s.notifyError(err)
		return fmt.Errorf("deleting message: %w", err)
	}
	s.store.RemoveMessage(threadID, messageID)
	s.store.SetCounts(counts)
	return nil
}

// SetFavorite toggles the favorite flag on a thread.
func (s *Service) SetFavorite(ctx context.Context, threadID string, favorite bool) error {
	return s.patch(ctx, PatchInput{ThreadID: threadID, IsFavorite: &favorite})
}

// SetLock toggles the persona lock on a thread.
func (s *Service) SetLock(ctx context.Context, threadID string, locked bool) error {
	return s.patch(ctx, PatchInput{ThreadID: threadID, IsLocked: &locked})
}

// ReassignPersona changes the persona on a thread. A locked thread refuses
// the change unless the caller explicitly overrides.
func (s *Service) ReassignPersona(ctx context.Context, threadID string, personaID int64, overrideLock bool) error {
	if t, ok := s.store.Thread(threadID); ok && t.IsLocked && !overrideLock {
		return entity.ErrThreadLocked
	}
	return s.patch(ctx, PatchInput{ThreadID: threadID, PersonaID: &personaID, OverrideLock: overrideLock})
}

func (s *Service) patch(ctx context.Context, in PatchInput) error {
	patch, counts, err := s.api.PatchThread(ctx, in)
	if err != nil {
		s.notifyError(err)
		return fmt.Errorf("patching thread: %w", err)
	}
	s.store.ApplyPatch(patch)
	s.store.SetCounts(counts)
	return nil
}

// DeleteThread removes a thread and purges its log and watermark locally.
// A failed request leaves all local state untouched.
func (s *Service) DeleteThread(ctx context.Context, threadID string) error {
	counts, err := s.api.DeleteThread(ctx, threadID)
	if err != nil {
		s.notifyError(err)
		return fmt.Errorf("deleting thread: %w", err)
	}
	s.poller.Stop("thread:" + threadID)
	s.store.DeleteThread(threadID)
	s.store.SetCounts(counts)
	return nil
}

func (s *Service) notifyError(err error) {
	if s.notifier == nil {
		return
	}
	var hm HumanMessager
	if errors.As(err, &hm) {
		s.notifier.Notify(hm.HumanMessage())
		return
	}
	s.notifier.Notify("Something went wrong. Please try again.")
}
