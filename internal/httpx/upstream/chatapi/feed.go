package chatapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	feedentity "github.com/vadim/chatlink/internal/domain/feed/entity"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
)

// GetFeedInput represents input for fetching the community feed
type GetFeedInput struct {
	Limit      int
	ReplyLimit int
}

// GetFeedOutput represents output from fetching the feed: top-level
// entries with embedded replies, the personas referenced by them, and the
// feed display settings.
type GetFeedOutput struct {
	Entries  []feedentity.Entry
	Personas []personaentity.Persona
	Settings feedentity.Settings
}

// GetFeed retrieves the community feed.
// GET /api/v1/feed
func (c *Client) GetFeed(ctx context.Context, in GetFeedInput) (*GetFeedOutput, error) {
	params := url.Values{}
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.ReplyLimit > 0 {
		params.Set("reply_limit", strconv.Itoa(in.ReplyLimit))
	}

	var resp struct {
		Posts    []rawPost    `json:"posts"`
		Personas []rawPersona `json:"personas"`
		Settings rawSettings  `json:"settings"`
	}
	if err := c.getJSON(ctx, "/api/v1/feed", params, &resp); err != nil {
		return nil, err
	}

	entries := make([]feedentity.Entry, 0, len(resp.Posts))
	for _, raw := range resp.Posts {
		if entry, ok := normalizeEntry(raw); ok {
			entries = append(entries, entry)
		}
	}
	personas := make([]personaentity.Persona, 0, len(resp.Personas))
	for _, raw := range resp.Personas {
		if p, ok := normalizePersona(raw); ok {
			personas = append(personas, p)
		}
	}

	return &GetFeedOutput{
		Entries:  entries,
		Personas: personas,
		Settings: normalizeSettings(resp.Settings),
	}, nil
}

// CreatePostInput represents input for creating a feed post or reply. A
// zero ParentID creates a top-level post.
type CreatePostInput struct {
	ParentID int64
	Text     string
	MediaURL string
}

// CreatePostOutput represents output from creating a post
type CreatePostOutput struct {
	Post feedentity.Post
}

// CreatePost creates a feed post or reply.
// POST /api/v1/feed/posts
func (c *Client) CreatePost(ctx context.Context, in CreatePostInput) (*CreatePostOutput, error) {
	body := map[string]interface{}{"text": in.Text}
	if in.ParentID > 0 {
		body["parent_id"] = strconv.FormatInt(in.ParentID, 10)
	}
	if in.MediaURL != "" {
		body["media_url"] = in.MediaURL
	}

	var resp struct {
		Post rawPost `json:"post"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v1/feed/posts", body, &resp); err != nil {
		return nil, err
	}

	post, ok := normalizePost(resp.Post)
	if !ok {
		return nil, fmt.Errorf("create post: response carried no post")
	}
	return &CreatePostOutput{Post: post}, nil
}

// GetFeedSettings retrieves feed-level display settings.
// GET /api/v1/feed/settings
func (c *Client) GetFeedSettings(ctx context.Context) (feedentity.Settings, error) {
	var resp struct {
		Settings rawSettings `json:"settings"`
	}
	if err := c.getJSON(ctx, "/api/v1/feed/settings", nil, &resp); err != nil {
		return feedentity.Settings{}, err
	}
	return normalizeSettings(resp.Settings), nil
}

// PatchFeedSettingsInput represents input for updating feed settings
type PatchFeedSettingsInput struct {
	Title    *string
	RuleText *string
	Enabled  *bool
}

// PatchFeedSettings updates feed-level display settings.
// PATCH /api/v1/feed/settings
func (c *Client) PatchFeedSettings(ctx context.Context, in PatchFeedSettingsInput) (feedentity.Settings, error) {
	body := map[string]interface{}{}
	if in.Title != nil {
		body["title"] = *in.Title
	}
	if in.RuleText != nil {
		body["rule_text"] = *in.RuleText
	}
	if in.Enabled != nil {
		body["enabled"] = *in.Enabled
	}

	var resp struct {
		Settings rawSettings `json:"settings"`
	}
	if err := c.sendJSON(ctx, http.MethodPatch, "/api/v1/feed/settings", body, &resp); err != nil {
		return feedentity.Settings{}, err
	}
	return normalizeSettings(resp.Settings), nil
}
