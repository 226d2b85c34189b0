package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vadim/chatlink/internal/domain/persona/entity"
)

// PersonaAPI defines the backend operations for persona records.
type PersonaAPI interface {
	ListPersonas(ctx context.Context) ([]entity.Persona, error)
	CreatePersona(ctx context.Context, in CreateInput) (entity.Persona, error)
	UpdatePersona(ctx context.Context, in UpdateInput) (entity.Persona, error)
	DeletePersona(ctx context.Context, id int64) error
}

// CreateInput represents input for creating a persona
type CreateInput struct {
	DisplayName string
	Bio         string
	Tone        string
	SortOrder   int
}

// UpdateInput represents a partial persona update
type UpdateInput struct {
	ID          int64
	DisplayName *string
	Bio         *string
	Tone        *string
	IsActive    *bool
	SortOrder   *int
}

// Service handles persona administration. It keeps a small local cache so
// thread and feed views can resolve persona references without a fetch.
type Service struct {
	api PersonaAPI

	mu    sync.RWMutex
	cache []entity.Persona
}

// New creates a persona service.
func New(api PersonaAPI) *Service {
	return &Service{api: api}
}

// List returns all personas sorted by manual sort order. On transport
// failure the cached list is returned unchanged.
func (s *Service) List(ctx context.Context) ([]entity.Persona, error) {
	personas, err := s.api.ListPersonas(ctx)
	if err != nil {
		s.mu.RLock()
		cached := append([]entity.Persona(nil), s.cache...)
		s.mu.RUnlock()
		if len(cached) > 0 {
			return cached, nil
		}
		return nil, fmt.Errorf("listing personas: %w", err)
	}

	sort.SliceStable(personas, func(i, j int) bool {
		return personas[i].SortOrder < personas[j].SortOrder
	})

	s.mu.Lock()
	s.cache = append([]entity.Persona(nil), personas...)
	s.mu.Unlock()
	return personas, nil
}

// Get resolves a persona by identifier from the cache.
func (s *Service) Get(id int64) (entity.Persona, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.cache {
		if p.ID == id {
			return p, true
		}
	}
	return entity.Persona{}, false
}

// Create creates a persona record.
func (s *Service) Create(ctx context.Context, in CreateInput) (entity.Persona, error) {
	if err := entity.ValidateDisplayName(in.DisplayName); err != nil {
		return entity.Persona{}, err
	}

	p, err := s.api.CreatePersona(ctx, in)
	if err != nil {
		return entity.Persona{}, fmt.Errorf("creating persona: %w", err)
	}

	s.mu.Lock()
	s.cache = append(s.cache, p)
	s.mu.Unlock()
	return p, nil
}

// Update patches a persona record.
func (s *Service) Update(ctx context.Context, in UpdateInput) (entity.Persona, error) {
	if in.DisplayName != nil {
		if err := entity.ValidateDisplayName(*in.DisplayName); err != nil {
			return entity.Persona{}, err
		}
	}

	p, err := s.api.UpdatePersona(ctx, in)
	if err != nil {
		return entity.Persona{}, fmt.Errorf("updating persona: %w", err)
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == p.ID {
			s.cache[i] = p
			break
		}
	}
	s.mu.Unlock()
	return p, nil
}

// Delete removes a persona record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.DeletePersona(ctx, id); err != nil {
		return fmt.Errorf("deleting persona: %w", err)
	}

	s.mu.Lock()
	for i := range s.cache {
		if s.cache[i].ID == id {
			s.cache = append(s.cache[:i], s.cache[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}
