package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/chatlink/internal/domain/persona/entity"
	"github.com/vadim/chatlink/internal/domain/persona/service"
	"github.com/vadim/chatlink/internal/httpx/response"
)

// PersonaAdmin defines the persona operations the facade exposes
type PersonaAdmin interface {
	List(ctx context.Context) ([]entity.Persona, error)
	Create(ctx context.Context, in service.CreateInput) (entity.Persona, error)
	Update(ctx context.Context, in service.UpdateInput) (entity.Persona, error)
	Delete(ctx context.Context, id int64) error
}

// PersonaHandler handles facade requests for persona administration
type PersonaHandler struct {
	admin PersonaAdmin
}

// NewPersonaHandler creates a new persona handler
func NewPersonaHandler(admin PersonaAdmin) *PersonaHandler {
	return &PersonaHandler{admin: admin}
}

// RegisterRoutes registers persona routes
func (h *PersonaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/personas", func(r chi.Router) {
		r.Get("/", h.ListPersonas())
		r.Post("/", h.CreatePersona())
		r.Patch("/{personaId}", h.UpdatePersona())
		r.Delete("/{personaId}", h.DeletePersona())
	})
}

// ListPersonasResponse represents the persona roster
type ListPersonasResponse struct {
	Personas []entity.Persona `json:"personas"`
}

// ListPersonas handles GET /personas
func (h *PersonaHandler) ListPersonas() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personas, err := h.admin.List(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		response.OK(w, ListPersonasResponse{Personas: personas})
	}
}

// CreatePersonaRequest represents a request to create a persona
type CreatePersonaRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	Tone        string `json:"tone,omitempty"`
	SortOrder   int    `json:"sort_order,omitempty"`
}

// CreatePersona handles POST /personas
func (h *PersonaHandler) CreatePersona() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePersonaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		p, err := h.admin.Create(r.Context(), service.CreateInput{
			DisplayName: req.DisplayName,
			Bio:         req.Bio,
			Tone:        req.Tone,
			SortOrder:   req.SortOrder,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, p)
	}
}

// UpdatePersonaRequest represents a partial persona update
type UpdatePersonaRequest struct {
	DisplayName *string `json:"display_name,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Tone        *string `json:"tone,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	SortOrder   *int    `json:"sort_order,omitempty"`
}

// UpdatePersona handles PATCH /personas/{personaId}
func (h *PersonaHandler) UpdatePersona() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "personaId"), 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(w, "invalid persona id")
			return
		}

		var req UpdatePersonaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}

		p, err := h.admin.Update(r.Context(), service.UpdateInput{
			ID:          id,
			DisplayName: req.DisplayName,
			Bio:         req.Bio,
			Tone:        req.Tone,
			IsActive:    req.IsActive,
			SortOrder:   req.SortOrder,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		response.OK(w, p)
	}
}

// DeletePersona handles DELETE /personas/{personaId}
func (h *PersonaHandler) DeletePersona() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "personaId"), 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(w, "invalid persona id")
			return
		}

		if err := h.admin.Delete(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		response.NoContent(w)
	}
}
