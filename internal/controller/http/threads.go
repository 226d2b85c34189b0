package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/chatlink/internal/domain/thread/entity"
	"github.com/vadim/chatlink/internal/domain/thread/service"
	"github.com/vadim/chatlink/internal/domain/thread/store"
	"github.com/vadim/chatlink/internal/httpx/response"
)

// maxMediaUploadBytes bounds the multipart body accepted for media sends.
const maxMediaUploadBytes = 32 << 20

// ThreadEngine defines the thread operations the facade exposes
type ThreadEngine interface {
	RefreshThreads(ctx context.Context, search string) []entity.Thread
	SetSearchTerm(term string)
	SyncMessages(ctx context.Context, threadID string, force bool) []entity.Message
	OpenThread(ctx context.Context, threadID string)
	CloseThread(threadID string)
	StartThread(ctx context.Context, personaID, originPostID int64) (entity.Thread, error)
	SendMessage(ctx context.Context, threadID, text string) (entity.Message, error)
	SendMediaMessage(ctx context.Context, in service.MediaInput) (entity.Message, error)
	DeleteMessage(ctx context.Context, threadID string, messageID int64) error
	SetFavorite(ctx context.Context, threadID string, favorite bool) error
	SetLock(ctx context.Context, threadID string, locked bool) error
	ReassignPersona(ctx context.Context, threadID string, personaID int64, overrideLock bool) error
	DeleteThread(ctx context.Context, threadID string) error
}

// ThreadHandler handles facade requests for threads and messages. Reads
// come from store snapshots; writes go through the engine.
type ThreadHandler struct {
	engine ThreadEngine
	store  *store.Store
}

// NewThreadHandler creates a new thread handler
func NewThreadHandler(engine ThreadEngine, st *store.Store) *ThreadHandler {
	return &ThreadHandler{engine: engine, store: st}
}

// RegisterRoutes registers thread routes
func (h *ThreadHandler) RegisterRoutes(r chi.Router) {
	r.Route("/threads", func(r chi.Router) {
		r.Get("/", h.ListThreads())
		r.Post("/", h.StartThread())
		r.Get("/counts", h.GetCounts())

		r.Route("/{threadId}", func(r chi.Router) {
			r.Patch("/", h.PatchThread())
			r.Delete("/", h.DeleteThread())
			r.Post("/open", h.OpenThread())
			r.Post("/close", h.CloseThread())

			r.Get("/messages", h.GetMessages())
			r.Post("/messages", h.SendMessage())
			r.Delete("/messages/{messageId}", h.DeleteMessage())
		})
	})
}

// ListThreadsResponse represents the thread directory snapshot
type ListThreadsResponse struct {
	Threads []entity.Thread `json:"threads"`
}

// ListThreads handles GET /threads. A search term arms the debounced
// re-fetch and the current snapshot is returned immediately; refresh=1
// forces a synchronous full refresh.
func (h *ThreadHandler) ListThreads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "" {
			h.engine.SetSearchTerm(q)
		}

		var threads []entity.Thread
		if r.URL.Query().Get("refresh") == "1" {
			threads = h.engine.RefreshThreads(r.Context(), r.URL.Query().Get("q"))
		} else {
			threads = h.store.Threads()
		}

		response.OK(w, ListThreadsResponse{Threads: threads})
	}
}

// StartThreadRequest represents a request to start a conversation
type StartThreadRequest struct {
	PersonaID    int64  `json:"persona_id,omitempty"`
	OriginPostID string `json:"origin_post_id,omitempty"`
}

// StartThread handles POST /threads
func (h *ThreadHandler) StartThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if req.PersonaID <= 0 && req.OriginPostID == "" {
			response.BadRequest(w, "persona_id or origin_post_id is required")
			return
		}

		var originPostID int64
		if req.OriginPostID != "" {
			parsed, err := strconv.ParseInt(req.OriginPostID, 10, 64)
			if err != nil || parsed <= 0 {
				response.BadRequest(w, "invalid origin_post_id")
				return
			}
			originPostID = parsed
		}

		thread, err := h.engine.StartThread(r.Context(), req.PersonaID, originPostID)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, thread)
	}
}

// GetCounts handles GET /threads/counts
func (h *ThreadHandler) GetCounts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.store.Counts())
	}
}

// PatchThreadRequest represents a partial thread update
type PatchThreadRequest struct {
	IsFavorite   *bool  `json:"is_favorite,omitempty"`
	IsLocked     *bool  `json:"is_locked,omitempty"`
	PersonaID    *int64 `json:"persona_id,omitempty"`
	OverrideLock bool   `json:"override_lock,omitempty"`
}

// PatchThread handles PATCH /threads/{threadId}
func (h *ThreadHandler) PatchThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadId")

		var req PatchThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		var err error
		switch {
		case req.PersonaID != nil:
			err = h.engine.ReassignPersona(r.Context(), threadID, *req.PersonaID, req.OverrideLock)
		case req.IsFavorite != nil:
			err = h.engine.SetFavorite(r.Context(), threadID, *req.IsFavorite)
		case req.IsLocked != nil:
			err = h.engine.SetLock(r.Context(), threadID, *req.IsLocked)
		default:
			response.BadRequest(w, "no fields to update")
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		if thread, ok := h.store.Thread(threadID); ok {
			response.OK(w, thread)
			return
		}
		response.NoContent(w)
	}
}

// DeleteThread handles DELETE /threads/{threadId}
func (h *ThreadHandler) DeleteThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.engine.DeleteThread(r.Context(), chi.URLParam(r, "threadId")); err != nil {
			writeError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// OpenThread handles POST /threads/{threadId}/open: begins the catch-up
// poll for the thread.
func (h *ThreadHandler) OpenThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The poll must outlive this request.
		h.engine.OpenThread(context.WithoutCancel(r.Context()), chi.URLParam(r, "threadId"))
		response.NoContent(w)
	}
}

// CloseThread handles POST /threads/{threadId}/close
func (h *ThreadHandler) CloseThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.engine.CloseThread(chi.URLParam(r, "threadId"))
		response.NoContent(w)
	}
}

// GetMessagesResponse represents a thread's message log
type GetMessagesResponse struct {
	Messages []entity.Message `json:"messages"`
}

// GetMessages handles GET /threads/{threadId}/messages. sync=1 triggers a
// catch-up fetch first; force=1 makes that fetch a full replace.
func (h *ThreadHandler) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadId")

		var messages []entity.Message
		if r.URL.Query().Get("sync") == "1" || r.URL.Query().Get("force") == "1" {
			messages = h.engine.SyncMessages(r.Context(), threadID, r.URL.Query().Get("force") == "1")
		} else {
			messages = h.store.Messages(threadID)
		}

		response.OK(w, GetMessagesResponse{Messages: messages})
	}
}

// SendMessageRequest represents a request to send a text message
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /threads/{threadId}/messages. A JSON body sends
// text; a multipart body sends media under the named field "media".
func (h *ThreadHandler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threadID := chi.URLParam(r, "threadId")

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			h.sendMedia(w, r, threadID)
			return
		}

		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		msg, err := h.engine.SendMessage(r.Context(), threadID, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, msg)
	}
}

func (h *ThreadHandler) sendMedia(w http.ResponseWriter, r *http.Request, threadID string) {
	if err := r.ParseMultipartForm(maxMediaUploadBytes); err != nil {
		response.BadRequest(w, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		response.BadRequest(w, "media file is required")
		return
	}
	defer file.Close()

	msg, err := h.engine.SendMediaMessage(r.Context(), service.MediaInput{
		ThreadID:  threadID,
		FileName:  header.Filename,
		Media:     file,
		MediaType: r.FormValue("media_type"),
		Caption:   r.FormValue("text"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	response.Created(w, msg)
}

// DeleteMessage handles DELETE /threads/{threadId}/messages/{messageId}
func (h *ThreadHandler) DeleteMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		messageID, err := strconv.ParseInt(chi.URLParam(r, "messageId"), 10, 64)
		if err != nil || messageID <= 0 {
			response.BadRequest(w, "invalid message id")
			return
		}

		if err := h.engine.DeleteMessage(r.Context(), chi.URLParam(r, "threadId"), messageID); err != nil {
			writeError(w, err)
			return
		}
		response.NoContent(w)
	}
}
