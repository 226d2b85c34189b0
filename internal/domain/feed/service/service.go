package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vadim/chatlink/internal/domain/feed/entity"
	"github.com/vadim/chatlink/internal/domain/feed/store"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
)

// FeedAPI defines the backend operations the feed engine consumes.
type FeedAPI interface {
	GetFeed(ctx context.Context, limit, replyLimit int) ([]entity.Entry, []personaentity.Persona, entity.Settings, error)
	CreatePost(ctx context.Context, parentID int64, text, mediaURL string) (entity.Post, error)
	GetSettings(ctx context.Context) (entity.Settings, error)
	PatchSettings(ctx context.Context, title, ruleText *string, enabled *bool) (entity.Settings, error)
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

// Config holds feed engine configuration
type Config struct {
	PageLimit  int
	ReplyLimit int
}

// Service orchestrates fetching and reconciliation for the community feed.
type Service struct {
	api      FeedAPI
	store    *store.Store
	notifier Notifier
	logger   *slog.Logger

	pageLimit  int
	replyLimit int
}

// New creates a feed engine.
func New(api FeedAPI, st *store.Store, notifier Notifier, cfg Config, logger *slog.Logger) *Service {
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 30
	}
	if cfg.ReplyLimit <= 0 {
		cfg.ReplyLimit = 3
	}
	return &Service{
		api:        api,
		store:      st,
		notifier:   notifier,
		logger:     logger,
		pageLimit:  cfg.PageLimit,
		replyLimit: cfg.ReplyLimit,
	}
}

// Store exposes the underlying state cell for read-only snapshot access.
func (s *Service) Store() *store.Store { return s.store }

// Refresh replaces the whole feed from a full fetch. On transport failure
// the previous entries are returned unchanged.
func (s *Service) Refresh(ctx context.Context) []entity.Entry {
	entries, personas, settings, err := s.api.GetFeed(ctx, s.pageLimit, s.replyLimit)
	if err != nil {
		s.logger.Warn("feed fetch failed, keeping local state", "error", err)
		return s.store.Entries()
	}
	s.store.ReplaceAll(entries, personas, settings)
	return s.store.Entries()
}

// CreatePost creates a top-level post and integrates the server echo into
// the local feed.
func (s *Service) CreatePost(ctx context.Context, text, mediaURL string) (entity.Post, error) {
	if err := entity.ValidatePostText(text); err != nil {
		return entity.Post{}, err
	}

	post, err := s.api.CreatePost(ctx, 0, text, mediaURL)
	if err != nil {
		s.notifyError(err)
		return entity.Post{}, fmt.Errorf("creating post: %w", err)
	}

	s.integrate(ctx, post)
	return post, nil
}

// CreateReply creates a reply under a top-level post and integrates the
// server echo.
func (s *Service) CreateReply(ctx context.Context, parentID int64, text string) (entity.Post, error) {
	if err := entity.ValidatePostText(text); err != nil {
		return entity.Post{}, err
	}

	post, err := s.api.CreatePost(ctx, parentID, text, "")
	if err != nil {
		s.notifyError(err)
		return entity.Post{}, fmt.Errorf("creating reply: %w", err)
	}

	s.integrate(ctx, post)
	return post, nil
}

// integrate merges one freshly created post into the feed. When a reply's
// parent is not held locally the feed cannot place it safely, so exactly
// one unconditional full reload is issued instead.
func (s *Service) integrate(ctx context.Context, post entity.Post) {
	if s.store.IntegratePost(post) {
		return
	}
	s.logger.Info("reply parent unknown locally, reloading feed", "post_id", post.ID, "parent_id", post.ParentID)
	s.Refresh(ctx)
}

// Settings returns the feed display settings, refreshing them from the
// backend; on failure the local value is returned.
func (s *Service) Settings(ctx context.Context) entity.Settings {
	settings, err := s.api.GetSettings(ctx)
	if err != nil {
		s.logger.Warn("feed settings fetch failed, keeping local state", "error", err)
		return s.store.Settings()
	}
	s.store.SetSettings(settings)
	return settings
}

// UpdateSettings patches the feed display settings.
func (s *Service) UpdateSettings(ctx context.Context, title, ruleText *string, enabled *bool) (entity.Settings, error) {
	settings, err := s.api.PatchSettings(ctx, title, ruleText, enabled)
	if err != nil {
		s.notifyError(err)
		return s.store.Settings(), fmt.Errorf("updating feed settings: %w", err)
	}
	s.store.SetSettings(settings)
	return settings, nil
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
