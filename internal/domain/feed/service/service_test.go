package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/vadim/chatlink/internal/domain/feed/entity"
	"github.com/vadim/chatlink/internal/domain/feed/store"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
)

type fakeFeedAPI struct {
	feedCalls   int
	feedErr     error
	feedEntries []entity.Entry

	createPost entity.Post
	createErr  error
}

func (f *fakeFeedAPI) GetFeed(ctx context.Context, limit, replyLimit int) ([]entity.Entry, []personaentity.Persona, entity.Settings, error) {
	f.feedCalls++
	if f.feedErr != nil {
		return nil, nil, entity.Settings{}, f.feedErr
	}
	return f.feedEntries, nil, entity.Settings{Enabled: true}, nil
}

func (f *fakeFeedAPI) CreatePost(ctx context.Context, parentID int64, text, mediaURL string) (entity.Post, error) {
	if f.createErr != nil {
		return entity.Post{}, f.createErr
	}
	return f.createPost, nil
}

func (f *fakeFeedAPI) GetSettings(ctx context.Context) (entity.Settings, error) {
	return entity.Settings{Enabled: true}, nil
}

func (f *fakeFeedAPI) PatchSettings(ctx context.Context, title, ruleText *string, enabled *bool) (entity.Settings, error) {
	return entity.Settings{Enabled: true}, nil
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func topLevel(id int64) entity.Entry {
	return entity.Entry{
		Post:    entity.Post{ID: id, AuthorKind: entity.AuthorUser, CreatedAt: time.Unix(100, 0)},
		Replies: []entity.Post{},
	}
}

func TestRefreshKeepsLocalStateOnFailure(t *testing.T) {
	api := &fakeFeedAPI{feedEntries: []entity.Entry{topLevel(1)}}
	st := store.New()
	svc := New(api, st, nil, Config{}, discard())

	svc.Refresh(context.Background())
	api.feedErr = errors.New("connection refused")

	entries := svc.Refresh(context.Background())
	if len(entries) != 1 || entries[0].Post.ID != 1 {
		t.Fatalf("Expected previous entries returned on failure, got %+v", entries)
	}
}

func TestCreateReply(t *testing.T) {
	t.Run("known parent integrates without reload", func(t *testing.T) {
		api := &fakeFeedAPI{
			feedEntries: []entity.Entry{topLevel(50)},
			createPost:  entity.Post{ID: 77, ParentID: 50, CreatedAt: time.Unix(120, 0)},
		}
		st := store.New()
		svc := New(api, st, nil, Config{}, discard())
		svc.Refresh(context.Background())
		api.feedCalls = 0

		if _, err := svc.CreateReply(context.Background(), 50, "hi"); err != nil {
			t.Fatalf("Expected reply to succeed, got %v", err)
		}

		if api.feedCalls != 0 {
			t.Fatalf("Expected no reload for known parent, got %d fetches", api.feedCalls)
		}
		if got := st.Entries()[0].ReplyCount; got != 1 {
			t.Errorf("Expected reply count 1, got %d", got)
		}
	})

	t.Run("unknown parent triggers exactly one reload", func(t *testing.T) {
		api := &fakeFeedAPI{
			feedEntries: []entity.Entry{topLevel(50)},
			createPost:  entity.Post{ID: 88, ParentID: 999, CreatedAt: time.Unix(120, 0)},
		}
		st := store.New()
		svc := New(api, st, nil, Config{}, discard())
		svc.Refresh(context.Background())
		api.feedCalls = 0

		if _, err := svc.CreateReply(context.Background(), 999, "hi"); err != nil {
			t.Fatalf("Expected reply to succeed, got %v", err)
		}

		if api.feedCalls != 1 {
			t.Fatalf("Expected exactly one reload for unknown parent, got %d fetches", api.feedCalls)
		}
	})
}

func TestCreatePostValidation(t *testing.T) {
	svc := New(&fakeFeedAPI{}, store.New(), nil, Config{}, discard())

	if _, err := svc.CreatePost(context.Background(), "", ""); !errors.Is(err, entity.ErrEmptyPost) {
		t.Fatalf("Expected ErrEmptyPost, got %v", err)
	}
}

type humanErr struct{ text string }

func (e humanErr) Error() string        { return "api error" }
func (e humanErr) HumanMessage() string { return e.text }

func TestCreatePostNotifiesOnFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	api := &fakeFeedAPI{createErr: humanErr{text: "Posting is paused right now."}}
	svc := New(api, store.New(), notifier, Config{}, discard())

	if _, err := svc.CreatePost(context.Background(), "hello", ""); err == nil {
		t.Fatal("Expected error")
	}

	if len(notifier.messages) != 1 || notifier.messages[0] != "Posting is paused right now." {
		t.Fatalf("Expected human-readable notice, got %v", notifier.messages)
	}
}
