package entity

import (
	"time"

	persona "github.com/vadim/chatlink/internal/domain/persona/entity"
)

// Role is the viewing role a thread list is fetched for. Each role carries
// its own independent unread counter on the thread.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// LastMessage is the denormalized preview of the newest message in a thread.
type LastMessage struct {
	ID        int64       `json:"id"`
	Kind      MessageKind `json:"kind"`
	Snippet   string      `json:"snippet"`
	Timestamp time.Time   `json:"timestamp"`
}

// Thread represents a 1:1 conversation between a user and a persona.
// The identifier is opaque, server-assigned and globally unique.
type Thread struct {
	ID             string          `json:"id"`
	Persona        persona.Persona `json:"persona"`
	IsLocked       bool            `json:"is_locked"`
	IsFavorite     bool            `json:"is_favorite"`
	UnreadUser     int             `json:"unread_user"`
	UnreadAgent    int             `json:"unread_agent"`
	LastMessage    *LastMessage    `json:"last_message,omitempty"`
	UserName       string          `json:"user_name,omitempty"`
	UserEmail      string          `json:"user_email,omitempty"`
	UserMobile     string          `json:"user_mobile,omitempty"`
	Presence       string          `json:"presence,omitempty"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

// ThreadPatch is a partial thread update as returned by a single-thread
// write. Pointer fields distinguish "absent from the response" from a zero
// value, so a patch never erases fields it did not intend to touch.
type ThreadPatch struct {
	ID          string
	Persona     *persona.Persona
	IsLocked    *bool
	IsFavorite  *bool
	UnreadUser  *int
	UnreadAgent *int
	LastMessage *LastMessage
	UserName    string
	UserEmail   string
	UserMobile  string
	Presence    string
}

// Counts is the aggregate activity snapshot recomputed by the server on
// every write. The client replaces it wholesale and never derives it.
type Counts struct {
	GlobalActive        int            `json:"global_active"`
	PrivateActive       int            `json:"private_active"`
	PrivateActiveByUser map[string]int `json:"private_active_by_user,omitempty"`
}
