package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/chatlink/internal/domain/feed/entity"
	"github.com/vadim/chatlink/internal/domain/feed/store"
	"github.com/vadim/chatlink/internal/httpx/response"
)

// FeedEngine defines the feed operations the facade exposes
type FeedEngine interface {
	Refresh(ctx context.Context) []entity.Entry
	CreatePost(ctx context.Context, text, mediaURL string) (entity.Post, error)
	CreateReply(ctx context.Context, parentID int64, text string) (entity.Post, error)
	Settings(ctx context.Context) entity.Settings
	UpdateSettings(ctx context.Context, title, ruleText *string, enabled *bool) (entity.Settings, error)
}

// FeedHandler handles facade requests for the community feed
type FeedHandler struct {
	engine FeedEngine
	store  *store.Store
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(engine FeedEngine, st *store.Store) *FeedHandler {
	return &FeedHandler{engine: engine, store: st}
}

// RegisterRoutes registers feed routes
func (h *FeedHandler) RegisterRoutes(r chi.Router) {
	r.Route("/feed", func(r chi.Router) {
		r.Get("/", h.GetFeed())
		r.Post("/posts", h.CreatePost())
		r.Post("/posts/{postId}/replies", h.CreateReply())
		r.Get("/settings", h.GetSettings())
		r.Patch("/settings", h.PatchSettings())
	})
}

// GetFeedResponse represents the feed snapshot
type GetFeedResponse struct {
	Entries  []entity.Entry  `json:"entries"`
	Settings entity.Settings `json:"settings"`
}

// GetFeed handles GET /feed. refresh=1 performs a synchronous full reload
// before the snapshot is returned.
func (h *FeedHandler) GetFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []entity.Entry
		if r.URL.Query().Get("refresh") == "1" {
			entries = h.engine.Refresh(r.Context())
		} else {
			entries = h.store.Entries()
		}

		response.OK(w, GetFeedResponse{
			Entries:  entries,
			Settings: h.store.Settings(),
		})
	}
}

// CreatePostRequest represents a request to create a top-level post
type CreatePostRequest struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
}

// CreatePost handles POST /feed/posts
func (h *FeedHandler) CreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		post, err := h.engine.CreatePost(r.Context(), req.Text, req.MediaURL)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, post)
	}
}

// CreateReplyRequest represents a request to reply to a post
type CreateReplyRequest struct {
	Text string `json:"text"`
}

// CreateReply handles POST /feed/posts/{postId}/replies
func (h *FeedHandler) CreateReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parentID, err := strconv.ParseInt(chi.URLParam(r, "postId"), 10, 64)
		if err != nil || parentID <= 0 {
			response.BadRequest(w, "invalid post id")
			return
		}

		var req CreateReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		post, err := h.engine.CreateReply(r.Context(), parentID, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, post)
	}
}

// GetSettings handles GET /feed/settings
func (h *FeedHandler) GetSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.engine.Settings(r.Context()))
	}
}

// PatchSettingsRequest represents a partial feed settings update
type PatchSettingsRequest struct {
	Title    *string `json:"title,omitempty"`
	RuleText *string `json:"rule_text,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

// PatchSettings handles PATCH /feed/settings
func (h *FeedHandler) PatchSettings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatchSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		if req.Title == nil && req.RuleText == nil && req.Enabled == nil {
			response.BadRequest(w, "no fields to update")
			return
		}

		settings, err := h.engine.UpdateSettings(r.Context(), req.Title, req.RuleText, req.Enabled)
		if err != nil {
			writeError(w, err)
			return
		}
		response.OK(w, settings)
	}
}
