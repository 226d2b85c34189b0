package chatapi

import (
	"bytes"
	"sort"
	"strconv"
	"time"

	feedentity "github.com/vadim/chatlink/internal/domain/feed/entity"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
)

// This file is the decoder boundary: everything past it sees only the
// strict entity shapes. Wire structs tolerate missing and loosely-typed
// fields; normalize* functions default every optional field and drop
// records that lack a valid identifier instead of failing.

// flexID decodes a numeric identifier that may arrive as a JSON number or
// as a string. Anything unparseable decodes to zero, which the normalizers
// treat as "absent".
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexID(n)
	return nil
}

// flexTime decodes a timestamp that may arrive as an RFC 3339 string or as
// unix seconds. Anything unparseable decodes to the zero time.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = flexTime(time.Time{})
		return nil
	}
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		parsed, err := time.Parse(time.RFC3339, s[1:len(s)-1])
		if err != nil {
			*f = flexTime(time.Time{})
			return nil
		}
		*f = flexTime(parsed)
		return nil
	}
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = flexTime(time.Time{})
		return nil
	}
	*f = flexTime(time.Unix(secs, 0).UTC())
	return nil
}

func (f flexTime) Time() time.Time { return time.Time(f) }

type rawPersona struct {
	ID          flexID `json:"id"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Tone        string `json:"tone"`
	IsActive    *bool  `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

// normalizePersona maps a wire persona to its entity. The second return is
// false for records without a positive identifier. IsActive defaults to
// true when absent.
func normalizePersona(raw rawPersona) (personaentity.Persona, bool) {
	if raw.ID <= 0 {
		return personaentity.Persona{}, false
	}
	active := true
	if raw.IsActive != nil {
		active = *raw.IsActive
	}
	return personaentity.Persona{
		ID:          int64(raw.ID),
		DisplayName: raw.DisplayName,
		Bio:         raw.Bio,
		Tone:        raw.Tone,
		IsActive:    active,
		SortOrder:   raw.SortOrder,
	}, true
}

type rawMessage struct {
	ID        flexID   `json:"id"`
	ThreadID  string   `json:"thread_id"`
	Sender    string   `json:"sender"`
	Kind      string   `json:"kind"`
	Text      string   `json:"text"`
	MediaURL  string   `json:"media_url"`
	Timestamp flexTime `json:"timestamp"`
	IsRead    bool     `json:"is_read"`
	CanDelete bool     `json:"can_delete"`
	IsMasked  bool     `json:"is_masked"`
	MaskNote  string   `json:"mask_note"`
}

func clampSender(s string) threadentity.SenderRole {
	switch threadentity.SenderRole(s) {
	case threadentity.SenderUser, threadentity.SenderPersona, threadentity.SenderAgent, threadentity.SenderSystem:
		return threadentity.SenderRole(s)
	default:
		return threadentity.SenderUser
	}
}

func clampMessageKind(kind, mediaURL string) threadentity.MessageKind {
	switch threadentity.MessageKind(kind) {
	case threadentity.KindText, threadentity.KindMedia:
		return threadentity.MessageKind(kind)
	}
	if mediaURL != "" {
		return threadentity.KindMedia
	}
	return threadentity.KindText
}

// normalizeMessage maps a wire message to its entity. threadID overrides an
// absent thread_id field (list responses omit it). Records without a
// positive identifier are dropped.
func normalizeMessage(raw rawMessage, threadID string) (threadentity.Message, bool) {
	if raw.ID <= 0 {
		return threadentity.Message{}, false
	}
	tid := raw.ThreadID
	if tid == "" {
		tid = threadID
	}
	return threadentity.Message{
		ID:        int64(raw.ID),
		ThreadID:  tid,
		Sender:    clampSender(raw.Sender),
		Kind:      clampMessageKind(raw.Kind, raw.MediaURL),
		Text:      raw.Text,
		MediaURL:  raw.MediaURL,
		Timestamp: raw.Timestamp.Time(),
		IsRead:    raw.IsRead,
		CanDelete: raw.CanDelete,
		IsMasked:  raw.IsMasked,
		MaskNote:  raw.MaskNote,
	}, true
}

func normalizeMessages(raws []rawMessage, threadID string) []threadentity.Message {
	out := make([]threadentity.Message, 0, len(raws))
	for _, raw := range raws {
		if msg, ok := normalizeMessage(raw, threadID); ok {
			out = append(out, msg)
		}
	}
	return out
}

type rawLastMessage struct {
	ID        flexID   `json:"id"`
	Kind      string   `json:"kind"`
	Snippet   string   `json:"snippet"`
	Timestamp flexTime `json:"timestamp"`
}

type rawThread struct {
	ID             string          `json:"id"`
	Persona        *rawPersona     `json:"persona"`
	IsLocked       *bool           `json:"is_locked"`
	IsFavorite     *bool           `json:"is_favorite"`
	UnreadUser     *int            `json:"unread_user"`
	UnreadAgent    *int            `json:"unread_agent"`
	LastMessage    *rawLastMessage `json:"last_message"`
	UserName       string          `json:"user_name"`
	UserEmail      string          `json:"user_email"`
	UserMobile     string          `json:"user_mobile"`
	Presence       string          `json:"presence"`
	LastActivityAt flexTime        `json:"last_activity_at"`
}

func normalizeLastMessage(raw *rawLastMessage) *threadentity.LastMessage {
	if raw == nil || raw.ID <= 0 {
		return nil
	}
	return &threadentity.LastMessage{
		ID:        int64(raw.ID),
		Kind:      clampMessageKind(raw.Kind, ""),
		Snippet:   raw.Snippet,
		Timestamp: raw.Timestamp.Time(),
	}
}

func clampCount(n *int) int {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}

// normalizeThread maps a wire thread to its entity. Thread identifiers are
// opaque strings; records with an empty identifier are dropped.
func normalizeThread(raw rawThread) (threadentity.Thread, bool) {
	if raw.ID == "" {
		return threadentity.Thread{}, false
	}
	t := threadentity.Thread{
		ID:             raw.ID,
		IsLocked:       raw.IsLocked != nil && *raw.IsLocked,
		IsFavorite:     raw.IsFavorite != nil && *raw.IsFavorite,
		UnreadUser:     clampCount(raw.UnreadUser),
		UnreadAgent:    clampCount(raw.UnreadAgent),
		LastMessage:    normalizeLastMessage(raw.LastMessage),
		UserName:       raw.UserName,
		UserEmail:      raw.UserEmail,
		UserMobile:     raw.UserMobile,
		Presence:       raw.Presence,
		LastActivityAt: raw.LastActivityAt.Time(),
	}
	if raw.Persona != nil {
		if p, ok := normalizePersona(*raw.Persona); ok {
			t.Persona = p
		}
	}
	return t, true
}

func normalizeThreads(raws []rawThread) []threadentity.Thread {
	out := make([]threadentity.Thread, 0, len(raws))
	for _, raw := range raws {
		if t, ok := normalizeThread(raw); ok {
			out = append(out, t)
		}
	}
	return out
}

// normalizeThreadPatch preserves field presence so a partial response never
// erases local fields it did not mention.
func normalizeThreadPatch(raw rawThread) (threadentity.ThreadPatch, bool) {
	if raw.ID == "" {
		return threadentity.ThreadPatch{}, false
	}
	p := threadentity.ThreadPatch{
		ID:          raw.ID,
		IsLocked:    raw.IsLocked,
		IsFavorite:  raw.IsFavorite,
		UnreadUser:  raw.UnreadUser,
		UnreadAgent: raw.UnreadAgent,
		LastMessage: normalizeLastMessage(raw.LastMessage),
		UserName:    raw.UserName,
		UserEmail:   raw.UserEmail,
		UserMobile:  raw.UserMobile,
		Presence:    raw.Presence,
	}
	if raw.Persona != nil {
		if persona, ok := normalizePersona(*raw.Persona); ok {
			p.Persona = &persona
		}
	}
	return p, true
}

type rawPost struct {
	ID                flexID    `json:"id"`
	ParentID          flexID    `json:"parent_id"`
	AuthorKind        string    `json:"author_kind"`
	AuthorName        string    `json:"author_name"`
	AuthorAvatarURL   string    `json:"author_avatar_url"`
	PersonaID         flexID    `json:"persona_id"`
	Text              string    `json:"text"`
	MediaURL          string    `json:"media_url"`
	IsMasked          bool      `json:"is_masked"`
	MaskNote          string    `json:"mask_note"`
	CreatedAt         flexTime  `json:"created_at"`
	CanReplyPrivately bool      `json:"can_reply_privately"`
	ReplyCount        int       `json:"reply_count"`
	Replies           []rawPost `json:"replies"`
}

func clampAuthorKind(s string) feedentity.AuthorKind {
	switch feedentity.AuthorKind(s) {
	case feedentity.AuthorUser, feedentity.AuthorPersona:
		return feedentity.AuthorKind(s)
	default:
		return feedentity.AuthorUser
	}
}

// normalizePost maps a wire post to its entity. Records without a positive
// identifier are dropped.
func normalizePost(raw rawPost) (feedentity.Post, bool) {
	if raw.ID <= 0 {
		return feedentity.Post{}, false
	}
	return feedentity.Post{
		ID:                int64(raw.ID),
		ParentID:          int64(raw.ParentID),
		AuthorKind:        clampAuthorKind(raw.AuthorKind),
		AuthorName:        raw.AuthorName,
		AuthorAvatarURL:   raw.AuthorAvatarURL,
		PersonaID:         int64(raw.PersonaID),
		Text:              raw.Text,
		MediaURL:          raw.MediaURL,
		IsMasked:          raw.IsMasked,
		MaskNote:          raw.MaskNote,
		CreatedAt:         raw.CreatedAt.Time(),
		CanReplyPrivately: raw.CanReplyPrivately,
	}, true
}

// normalizeEntry builds a feed entry from a wire top-level post: replies
// are normalized, sorted by creation time ascending, and the reply count is
// clamped so it never understates the replies actually held.
func normalizeEntry(raw rawPost) (feedentity.Entry, bool) {
	post, ok := normalizePost(raw)
	if !ok || post.IsReply() {
		return feedentity.Entry{}, false
	}
	replies := make([]feedentity.Post, 0, len(raw.Replies))
	for _, r := range raw.Replies {
		reply, ok := normalizePost(r)
		if !ok || !reply.IsReply() {
			continue
		}
		replies = append(replies, reply)
	}
	sort.SliceStable(replies, func(i, j int) bool {
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	count := raw.ReplyCount
	if count < len(replies) {
		count = len(replies)
	}
	return feedentity.Entry{
		Post:       post,
		Replies:    replies,
		ReplyCount: count,
	}, true
}

type rawCounts struct {
	GlobalActive        int            `json:"global_active"`
	PrivateActive       int            `json:"private_active"`
	PrivateActiveByUser map[string]int `json:"private_active_by_user"`
}

func normalizeCounts(raw *rawCounts) *threadentity.Counts {
	if raw == nil {
		return nil
	}
	c := threadentity.Counts{
		GlobalActive:        raw.GlobalActive,
		PrivateActive:       raw.PrivateActive,
		PrivateActiveByUser: raw.PrivateActiveByUser,
	}
	if c.GlobalActive < 0 {
		c.GlobalActive = 0
	}
	if c.PrivateActive < 0 {
		c.PrivateActive = 0
	}
	return &c
}

type rawSettings struct {
	Title    string `json:"title"`
	RuleText string `json:"rule_text"`
	Enabled  *bool  `json:"enabled"`
}

// normalizeSettings defaults Enabled to true: a feed is visible unless the
// backend says otherwise.
func normalizeSettings(raw rawSettings) feedentity.Settings {
	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}
	return feedentity.Settings{
		Title:    raw.Title,
		RuleText: raw.RuleText,
		Enabled:  enabled,
	}
}
