package entity

// Entry groups one top-level post with its materialized replies.
// ReplyCount is always >= len(Replies): replies may be fetched with a
// smaller limit than the true count. Replies are kept sorted by creation
// timestamp ascending.
type Entry struct {
	Post       Post   `json:"post"`
	Replies    []Post `json:"replies"`
	ReplyCount int    `json:"reply_count"`
}

// Settings holds feed-level display settings.
type Settings struct {
	Title    string `json:"title,omitempty"`
	RuleText string `json:"rule_text,omitempty"`
	Enabled  bool   `json:"enabled"`
}
