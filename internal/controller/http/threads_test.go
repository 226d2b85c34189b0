package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/chatlink/internal/domain/thread/entity"
	"github.com/vadim/chatlink/internal/domain/thread/service"
	"github.com/vadim/chatlink/internal/domain/thread/store"
)

type fakeEngine struct {
	searchTerms []string
	favorites   map[string]bool
	sendErr     error
	deleteErr   error
}

func (f *fakeEngine) RefreshThreads(ctx context.Context, search string) []entity.Thread {
	return nil
}
func (f *fakeEngine) SetSearchTerm(term string) { f.searchTerms = append(f.searchTerms, term) }
func (f *fakeEngine) SyncMessages(ctx context.Context, threadID string, force bool) []entity.Message {
	return nil
}
func (f *fakeEngine) OpenThread(ctx context.Context, threadID string) {}
func (f *fakeEngine) CloseThread(threadID string)                     {}
func (f *fakeEngine) StartThread(ctx context.Context, personaID, originPostID int64) (entity.Thread, error) {
	return entity.Thread{ID: "t-new"}, nil
}
func (f *fakeEngine) SendMessage(ctx context.Context, threadID, text string) (entity.Message, error) {
	if f.sendErr != nil {
		return entity.Message{}, f.sendErr
	}
	return entity.Message{ID: 1, ThreadID: threadID, Text: text}, nil
}
func (f *fakeEngine) SendMediaMessage(ctx context.Context, in service.MediaInput) (entity.Message, error) {
	return entity.Message{}, nil
}
func (f *fakeEngine) DeleteMessage(ctx context.Context, threadID string, messageID int64) error {
	return nil
}
func (f *fakeEngine) SetFavorite(ctx context.Context, threadID string, favorite bool) error {
	if f.favorites == nil {
		f.favorites = make(map[string]bool)
	}
	f.favorites[threadID] = favorite
	return nil
}
func (f *fakeEngine) SetLock(ctx context.Context, threadID string, locked bool) error { return nil }
func (f *fakeEngine) ReassignPersona(ctx context.Context, threadID string, personaID int64, overrideLock bool) error {
	return nil
}
func (f *fakeEngine) DeleteThread(ctx context.Context, threadID string) error { return f.deleteErr }

func newTestRouter(engine ThreadEngine, st *store.Store) *chi.Mux {
	r := chi.NewRouter()
	NewThreadHandler(engine, st).RegisterRoutes(r)
	return r
}

func TestListThreadsHandler(t *testing.T) {
	t.Run("returns snapshot", func(t *testing.T) {
		st := store.New()
		st.ReplaceThreads([]entity.Thread{{ID: "t1"}, {ID: "t2"}})
		r := newTestRouter(&fakeEngine{}, st)

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/threads", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
		var resp ListThreadsResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if len(resp.Threads) != 2 {
			t.Errorf("Expected 2 threads, got %d", len(resp.Threads))
		}
	})

	t.Run("search term arms the debounce", func(t *testing.T) {
		engine := &fakeEngine{}
		r := newTestRouter(engine, store.New())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/threads?q=dana", nil))

		if len(engine.searchTerms) != 1 || engine.searchTerms[0] != "dana" {
			t.Fatalf("Expected search term recorded, got %v", engine.searchTerms)
		}
	})
}

func TestPatchThreadHandler(t *testing.T) {
	t.Run("routes favorite toggle", func(t *testing.T) {
		engine := &fakeEngine{}
		st := store.New()
		st.ReplaceThreads([]entity.Thread{{ID: "t1"}})
		r := newTestRouter(engine, st)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/threads/t1", bytes.NewReader([]byte(`{"is_favorite":true}`)))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", rec.Code)
		}
		if !engine.favorites["t1"] {
			t.Error("Expected favorite routed to engine")
		}
	})

	t.Run("rejects empty patch", func(t *testing.T) {
		r := newTestRouter(&fakeEngine{}, store.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/threads/t1", bytes.NewReader([]byte(`{}`)))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
	})
}

func TestSendMessageHandler(t *testing.T) {
	t.Run("validation error maps to 400", func(t *testing.T) {
		engine := &fakeEngine{sendErr: entity.ErrEmptyMessage}
		r := newTestRouter(engine, store.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/threads/t1/messages", bytes.NewReader([]byte(`{"text":""}`)))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
	})

	t.Run("locked thread maps to 400", func(t *testing.T) {
		engine := &fakeEngine{sendErr: entity.ErrThreadLocked}
		r := newTestRouter(engine, store.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/threads/t1/messages", bytes.NewReader([]byte(`{"text":"hi"}`)))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", rec.Code)
		}
	})

	t.Run("success returns echo", func(t *testing.T) {
		r := newTestRouter(&fakeEngine{}, store.New())

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/threads/t1/messages", bytes.NewReader([]byte(`{"text":"hi"}`)))
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d", rec.Code)
		}
	})
}

func TestDeleteThreadHandler(t *testing.T) {
	t.Run("unknown thread maps to 404", func(t *testing.T) {
		engine := &fakeEngine{deleteErr: entity.ErrThreadNotFound}
		r := newTestRouter(engine, store.New())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/threads/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", rec.Code)
		}
	})

	t.Run("upstream failure maps to 502", func(t *testing.T) {
		engine := &fakeEngine{deleteErr: context.DeadlineExceeded}
		r := newTestRouter(engine, store.New())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/threads/t1", nil))

		if rec.Code != http.StatusBadGateway {
			t.Fatalf("Expected status 502, got %d", rec.Code)
		}
	})
}
