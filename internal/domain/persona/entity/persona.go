package entity

// Persona represents a chat identity presented to end users.
// Personas are created by an administrative actor and referenced by value
// from threads, messages and feed posts; they are never owned by them.
type Persona struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	Tone        string `json:"tone,omitempty"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// MaxDisplayNameLength is the maximum length of a persona display name
const MaxDisplayNameLength = 100

// ValidateDisplayName validates the display name for a persona
func ValidateDisplayName(name string) error {
	if name == "" {
		return ErrEmptyDisplayName
	}
	if len(name) > MaxDisplayNameLength {
		return ErrDisplayNameTooLong
	}
	return nil
}
