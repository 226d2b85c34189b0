package chatapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
)

// ListPersonas retrieves all persona records.
// GET /api/v1/personas
func (c *Client) ListPersonas(ctx context.Context) ([]personaentity.Persona, error) {
	var resp struct {
		Personas []rawPersona `json:"personas"`
	}
	if err := c.getJSON(ctx, "/api/v1/personas", nil, &resp); err != nil {
		return nil, err
	}

	personas := make([]personaentity.Persona, 0, len(resp.Personas))
	for _, raw := range resp.Personas {
		if p, ok := normalizePersona(raw); ok {
			personas = append(personas, p)
		}
	}
	return personas, nil
}

// CreatePersonaInput represents input for creating a persona
type CreatePersonaInput struct {
	DisplayName string
	Bio         string
	Tone        string
	SortOrder   int
}

// CreatePersona creates a persona record.
// POST /api/v1/personas
func (c *Client) CreatePersona(ctx context.Context, in CreatePersonaInput) (personaentity.Persona, error) {
	body := map[string]interface{}{
		"display_name": in.DisplayName,
		"bio":          in.Bio,
		"tone":         in.Tone,
		"sort_order":   in.SortOrder,
	}

	var resp struct {
		Persona rawPersona `json:"persona"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v1/personas", body, &resp); err != nil {
		return personaentity.Persona{}, err
	}

	p, ok := normalizePersona(resp.Persona)
	if !ok {
		return personaentity.Persona{}, fmt.Errorf("create persona: response carried no persona")
	}
	return p, nil
}

// UpdatePersonaInput represents input for updating a persona
type UpdatePersonaInput struct {
	ID          int64
	DisplayName *string
	Bio         *string
	Tone        *string
	IsActive    *bool
	SortOrder   *int
}

// UpdatePersona updates a persona record.
// PATCH /api/v1/personas/{id}
func (c *Client) UpdatePersona(ctx context.Context, in UpdatePersonaInput) (personaentity.Persona, error) {
	body := map[string]interface{}{}
	if in.DisplayName != nil {
		body["display_name"] = *in.DisplayName
	}
	if in.Bio != nil {
		body["bio"] = *in.Bio
	}
	if in.Tone != nil {
		body["tone"] = *in.Tone
	}
	if in.IsActive != nil {
		body["is_active"] = *in.IsActive
	}
	if in.SortOrder != nil {
		body["sort_order"] = *in.SortOrder
	}

	var resp struct {
		Persona rawPersona `json:"persona"`
	}
	path := "/api/v1/personas/" + strconv.FormatInt(in.ID, 10)
	if err := c.sendJSON(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return personaentity.Persona{}, err
	}

	p, ok := normalizePersona(resp.Persona)
	if !ok {
		return personaentity.Persona{}, fmt.Errorf("update persona: response carried no persona")
	}
	return p, nil
}

// DeletePersona removes a persona record.
// DELETE /api/v1/personas/{id}
func (c *Client) DeletePersona(ctx context.Context, id int64) error {
	path := "/api/v1/personas/" + strconv.FormatInt(id, 10)
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}
