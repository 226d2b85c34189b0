package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/chatlink/internal/httpx/response"
	"github.com/vadim/chatlink/internal/notify"
)

// NoticeReader exposes the retained user-visible error backlog
type NoticeReader interface {
	Recent() []notify.Notice
}

// NoticeHandler serves the toast backlog to the presentation layer
type NoticeHandler struct {
	reader NoticeReader
}

// NewNoticeHandler creates a new notice handler
func NewNoticeHandler(reader NoticeReader) *NoticeHandler {
	return &NoticeHandler{reader: reader}
}

// RegisterRoutes registers notice routes
func (h *NoticeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notices", h.ListNotices())
}

// ListNoticesResponse represents the retained notices
type ListNoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
}

// ListNotices handles GET /notices
func (h *NoticeHandler) ListNotices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notices := h.reader.Recent()
		if notices == nil {
			notices = []notify.Notice{}
		}
		response.OK(w, ListNoticesResponse{Notices: notices})
	}
}
