package entity

import "time"

// AuthorKind identifies who authored a feed post. Unknown wire values are
// clamped to AuthorUser by the normalizer.
type AuthorKind string

const (
	AuthorUser    AuthorKind = "user"
	AuthorPersona AuthorKind = "persona"
)

// Post is a community-visible feed item. A zero ParentID marks a top-level
// post; a non-zero ParentID references the top-level post it replies to.
type Post struct {
	ID                int64      `json:"id,string"`
	ParentID          int64      `json:"parent_id,string,omitempty"`
	AuthorKind        AuthorKind `json:"author_kind"`
	AuthorName        string     `json:"author_name,omitempty"`
	AuthorAvatarURL   string     `json:"author_avatar_url,omitempty"`
	PersonaID         int64      `json:"persona_id,omitempty"`
	Text              string     `json:"text,omitempty"`
	MediaURL          string     `json:"media_url,omitempty"`
	IsMasked          bool       `json:"is_masked"`
	MaskNote          string     `json:"mask_note,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CanReplyPrivately bool       `json:"can_reply_privately"`
}

// IsReply reports whether the post references a parent.
func (p Post) IsReply() bool {
	return p.ParentID != 0
}

// MaxPostLength is the maximum length of a feed post or reply
const MaxPostLength = 2200

// ValidatePostText validates the text for an outgoing post
func ValidatePostText(text string) error {
	if text == "" {
		return ErrEmptyPost
	}
	if len(text) > MaxPostLength {
		return ErrPostTooLong
	}
	return nil
}
