package chatapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
)

// ListThreadsInput represents input for listing threads
type ListThreadsInput struct {
	Role   threadentity.Role
	Search string
	Limit  int
}

// ListThreadsOutput represents output from listing threads
type ListThreadsOutput struct {
	Threads []threadentity.Thread
}

// ListThreads retrieves the thread directory for a viewing role, optionally
// filtered by a search term.
// GET /api/v1/threads
func (c *Client) ListThreads(ctx context.Context, in ListThreadsInput) (*ListThreadsOutput, error) {
	params := url.Values{}
	params.Set("role", string(in.Role))
	if in.Search != "" {
		params.Set("q", in.Search)
	}
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}

	var resp struct {
		Threads []rawThread `json:"threads"`
	}
	if err := c.getJSON(ctx, "/api/v1/threads", params, &resp); err != nil {
		return nil, err
	}

	return &ListThreadsOutput{Threads: normalizeThreads(resp.Threads)}, nil
}

// CreateThreadInput represents input for starting a conversation. Exactly
// one of PersonaID or OriginPostID drives the seed: a thread is started
// either with a chosen persona or from a feed post.
type CreateThreadInput struct {
	PersonaID    int64
	OriginPostID int64
}

// CreateThreadOutput represents output from starting a conversation
type CreateThreadOutput struct {
	Thread threadentity.Thread
	Counts *threadentity.Counts
}

// CreateThread starts a new conversation.
// POST /api/v1/threads
func (c *Client) CreateThread(ctx context.Context, in CreateThreadInput) (*CreateThreadOutput, error) {
	body := map[string]interface{}{}
	if in.PersonaID > 0 {
		body["persona_id"] = in.PersonaID
	}
	if in.OriginPostID > 0 {
		body["origin_post_id"] = strconv.FormatInt(in.OriginPostID, 10)
	}

	var resp struct {
		Thread rawThread  `json:"thread"`
		Counts *rawCounts `json:"counts"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/v1/threads", body, &resp); err != nil {
		return nil, err
	}

	thread, ok := normalizeThread(resp.Thread)
	if !ok {
		return nil, fmt.Errorf("create thread: response carried no thread")
	}
	return &CreateThreadOutput{Thread: thread, Counts: normalizeCounts(resp.Counts)}, nil
}

// PatchThreadInput represents input for patching a thread
type PatchThreadInput struct {
	ThreadID     string
	IsFavorite   *bool
	IsLocked     *bool
	PersonaID    *int64
	OverrideLock bool
}

// PatchThreadOutput represents output from patching a thread
type PatchThreadOutput struct {
	Patch  threadentity.ThreadPatch
	Counts *threadentity.Counts
}

// PatchThread updates favorite, lock or persona assignment on a thread.
// PATCH /api/v1/threads/{id}
func (c *Client) PatchThread(ctx context.Context, in PatchThreadInput) (*PatchThreadOutput, error) {
	body := map[string]interface{}{}
	if in.IsFavorite != nil {
		body["is_favorite"] = *in.IsFavorite
	}
	if in.IsLocked != nil {
		body["is_locked"] = *in.IsLocked
	}
	if in.PersonaID != nil {
		body["persona_id"] = *in.PersonaID
	}
	if in.OverrideLock {
		body["override_lock"] = true
	}

	var resp struct {
		Thread rawThread  `json:"thread"`
		Counts *rawCounts `json:"counts"`
	}
	path := "/api/v1/threads/" + url.PathEscape(in.ThreadID)
	if err := c.sendJSON(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return nil, err
	}

	patch, ok := normalizeThreadPatch(resp.Thread)
	if !ok {
		// The backend acknowledged the write without echoing the thread;
		// fall back to the identifier we patched.
		patch = threadentity.ThreadPatch{ID: in.ThreadID}
	}
	return &PatchThreadOutput{Patch: patch, Counts: normalizeCounts(resp.Counts)}, nil
}

// DeleteThreadOutput represents output from deleting a thread
type DeleteThreadOutput struct {
	Counts *threadentity.Counts
}

// DeleteThread removes a thread and all of its messages server-side.
// DELETE /api/v1/threads/{id}
func (c *Client) DeleteThread(ctx context.Context, threadID string) (*DeleteThreadOutput, error) {
	var resp struct {
		Counts *rawCounts `json:"counts"`
	}
	path := "/api/v1/threads/" + url.PathEscape(threadID)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &DeleteThreadOutput{Counts: normalizeCounts(resp.Counts)}, nil
}

// ListMessagesInput represents input for fetching a message batch. A
// positive After value scopes the fetch to messages newer than that
// watermark; zero requests the newest full page.
type ListMessagesInput struct {
	ThreadID string
	Limit    int
	After    int64
}

// ListMessagesOutput represents output from fetching messages
type ListMessagesOutput struct {
	Messages []threadentity.Message
}

// ListMessages retrieves a batch of messages for a thread.
// GET /api/v1/threads/{id}/messages
func (c *Client) ListMessages(ctx context.Context, in ListMessagesInput) (*ListMessagesOutput, error) {
	params := url.Values{}
	if in.Limit > 0 {
		params.Set("limit", strconv.Itoa(in.Limit))
	}
	if in.After > 0 {
		params.Set("after", strconv.FormatInt(in.After, 10))
	}

	var resp struct {
		Messages []rawMessage `json:"messages"`
	}
	path := "/api/v1/threads/" + url.PathEscape(in.ThreadID) + "/messages"
	if err := c.getJSON(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	return &ListMessagesOutput{Messages: normalizeMessages(resp.Messages, in.ThreadID)}, nil
}

// SendMessageInput represents input for sending a text message
type SendMessageInput struct {
	ThreadID string
	Text     string
}

// SendMessageOutput represents output from sending a message. Message is
// the server echo of the created record; the client never fabricates one.
type SendMessageOutput struct {
	Message threadentity.Message
	Counts  *threadentity.Counts
}

// SendMessage sends a text message.
// POST /api/v1/threads/{id}/messages
func (c *Client) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	var resp struct {
		Message rawMessage `json:"message"`
		Counts  *rawCounts `json:"counts"`
	}
	path := "/api/v1/threads/" + url.PathEscape(in.ThreadID) + "/messages"
	if err := c.sendJSON(ctx, http.MethodPost, path, map[string]string{"text": in.Text}, &resp); err != nil {
		return nil, err
	}

	msg, ok := normalizeMessage(resp.Message, in.ThreadID)
	if !ok {
		return nil, fmt.Errorf("send message: response carried no message")
	}
	return &SendMessageOutput{Message: msg, Counts: normalizeCounts(resp.Counts)}, nil
}

// SendMediaMessageInput represents input for sending a media message. Media
// is attached as the named multipart field "media" alongside text fields.
type SendMediaMessageInput struct {
	ThreadID  string
	FileName  string
	Media     io.Reader
	MediaType string
	Caption   string
}

// SendMediaMessage sends a media message as a multipart body.
// POST /api/v1/threads/{id}/messages
func (c *Client) SendMediaMessage(ctx context.Context, in SendMediaMessageInput) (*SendMessageOutput, error) {
	if in.Media == nil {
		return nil, threadentity.ErrMediaRequired
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("media", in.FileName)
	if err != nil {
		return nil, fmt.Errorf("creating media part: %w", err)
	}
	if _, err := io.Copy(part, in.Media); err != nil {
		return nil, fmt.Errorf("copying media: %w", err)
	}
	if in.MediaType != "" {
		if err := mw.WriteField("media_type", in.MediaType); err != nil {
			return nil, fmt.Errorf("writing media_type field: %w", err)
		}
	}
	if in.Caption != "" {
		if err := mw.WriteField("text", in.Caption); err != nil {
			return nil, fmt.Errorf("writing text field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	path := "/api/v1/threads/" + url.PathEscape(in.ThreadID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path, nil), &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Message rawMessage `json:"message"`
		Counts  *rawCounts `json:"counts"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	msg, ok := normalizeMessage(resp.Message, in.ThreadID)
	if !ok {
		return nil, fmt.Errorf("send media message: response carried no message")
	}
	return &SendMessageOutput{Message: msg, Counts: normalizeCounts(resp.Counts)}, nil
}

// DeleteMessageOutput represents output from deleting a message
type DeleteMessageOutput struct {
	Counts *threadentity.Counts
}

// DeleteMessage removes a message for everyone.
// DELETE /api/v1/threads/{id}/messages/{messageId}
func (c *Client) DeleteMessage(ctx context.Context, threadID string, messageID int64) (*DeleteMessageOutput, error) {
	var resp struct {
		Counts *rawCounts `json:"counts"`
	}
	path := "/api/v1/threads/" + url.PathEscape(threadID) + "/messages/" + strconv.FormatInt(messageID, 10)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &DeleteMessageOutput{Counts: normalizeCounts(resp.Counts)}, nil
}
