package entity

import "time"

// SenderRole identifies who produced a message. The set is closed; unknown
// wire values are clamped to SenderUser by the normalizer.
type SenderRole string

const (
	SenderUser    SenderRole = "user"
	SenderPersona SenderRole = "persona"
	SenderAgent   SenderRole = "agent"
	SenderSystem  SenderRole = "system"
)

// MessageKind distinguishes text messages from media messages. The payloads
// are mutually exclusive.
type MessageKind string

const (
	KindText  MessageKind = "text"
	KindMedia MessageKind = "media"
)

// Message belongs to exactly one thread. Identifiers are assigned by the
// server monotonically in arrival order, so within a thread numeric order
// equals chronological order.
type Message struct {
	ID        int64       `json:"id,string"`
	ThreadID  string      `json:"thread_id"`
	Sender    SenderRole  `json:"sender"`
	Kind      MessageKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	MediaURL  string      `json:"media_url,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	IsRead    bool        `json:"is_read"`
	CanDelete bool        `json:"can_delete"`
	IsMasked  bool        `json:"is_masked"`
	MaskNote  string      `json:"mask_note,omitempty"`
}

// MaxMessageLength is the maximum length of a text message
const MaxMessageLength = 2000

// ValidateMessageText validates the text for an outgoing message
func ValidateMessageText(text string) error {
	if text == "" {
		return ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
