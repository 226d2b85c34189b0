package http

import (
	"errors"
	"net/http"

	feedentity "github.com/vadim/chatlink/internal/domain/feed/entity"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
	"github.com/vadim/chatlink/internal/httpx/response"
)

// writeError maps domain and upstream errors to facade status codes.
// Validation errors are the caller's fault; anything else failed upstream.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, threadentity.ErrEmptyMessage),
		errors.Is(err, threadentity.ErrMessageTooLong),
		errors.Is(err, threadentity.ErrMediaRequired),
		errors.Is(err, threadentity.ErrThreadLocked),
		errors.Is(err, feedentity.ErrEmptyPost),
		errors.Is(err, feedentity.ErrPostTooLong),
		errors.Is(err, personaentity.ErrEmptyDisplayName),
		errors.Is(err, personaentity.ErrDisplayNameTooLong):
		response.BadRequest(w, err.Error())
	case errors.Is(err, threadentity.ErrThreadNotFound),
		errors.Is(err, threadentity.ErrMessageNotFound),
		errors.Is(err, feedentity.ErrPostNotFound),
		errors.Is(err, personaentity.ErrPersonaNotFound):
		response.NotFound(w, err.Error())
	default:
		response.BadGateway(w, err.Error())
	}
}
