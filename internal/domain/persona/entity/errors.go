package entity

import "errors"

// Domain errors for personas
var (
	ErrPersonaNotFound    = errors.New("persona not found")
	ErrEmptyDisplayName   = errors.New("persona display name cannot be empty")
	ErrDisplayNameTooLong = errors.New("persona display name exceeds maximum length")
)
