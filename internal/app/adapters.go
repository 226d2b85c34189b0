package app

import (
	"context"

	feedentity "github.com/vadim/chatlink/internal/domain/feed/entity"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
	personaservice "github.com/vadim/chatlink/internal/domain/persona/service"
	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
	threadservice "github.com/vadim/chatlink/internal/domain/thread/service"
	"github.com/vadim/chatlink/internal/httpx/upstream/chatapi"
)

// chatAPIAdapter adapts chatapi.Client to threadservice.ChatAPI
type chatAPIAdapter struct {
	client *chatapi.Client
}

func (a *chatAPIAdapter) ListThreads(ctx context.Context, role threadentity.Role, search string, limit int) ([]threadentity.Thread, error) {
	out, err := a.client.ListThreads(ctx, chatapi.ListThreadsInput{
		Role:   role,
		Search: search,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return out.Threads, nil
}

func (a *chatAPIAdapter) CreateThread(ctx context.Context, personaID, originPostID int64) (threadentity.Thread, *threadentity.Counts, error) {
	out, err := a.client.CreateThread(ctx, chatapi.CreateThreadInput{
		PersonaID:    personaID,
		OriginPostID: originPostID,
	})
	if err != nil {
		return threadentity.Thread{}, nil, err
	}
	return out.Thread, out.Counts, nil
}

func (a *chatAPIAdapter) PatchThread(ctx context.Context, in threadservice.PatchInput) (threadentity.ThreadPatch, *threadentity.Counts, error) {
	out, err := a.client.PatchThread(ctx, chatapi.PatchThreadInput{
		ThreadID:     in.ThreadID,
		IsFavorite:   in.IsFavorite,
		IsLocked:     in.IsLocked,
		PersonaID:    in.PersonaID,
		OverrideLock: in.OverrideLock,
	})
	if err != nil {
		return threadentity.ThreadPatch{}, nil, err
	}
	return out.Patch, out.Counts, nil
}

func (a *chatAPIAdapter) DeleteThread(ctx context.Context, threadID string) (*threadentity.Counts, error) {
	out, err := a.client.DeleteThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return out.Counts, nil
}

func (a *chatAPIAdapter) ListMessages(ctx context.Context, threadID string, limit int, after int64) ([]threadentity.Message, error) {
	out, err := a.client.ListMessages(ctx, chatapi.ListMessagesInput{
		ThreadID: threadID,
		Limit:    limit,
		After:    after,
	})
	if err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (a *chatAPIAdapter) SendMessage(ctx context.Context, threadID, text string) (threadentity.Message, *threadentity.Counts, error) {
	out, err := a.client.SendMessage(ctx, chatapi.SendMessageInput{
		ThreadID: threadID,
		Text:     text,
	})
	if err != nil {
		return threadentity.Message{}, nil, err
	}
	return out.Message, out.Counts, nil
}

func (a *chatAPIAdapter) SendMediaMessage(ctx context.Context, in threadservice.MediaInput) (threadentity.Message, *threadentity.Counts, error) {
	out, err := a.client.SendMediaMessage(ctx, chatapi.SendMediaMessageInput{
		ThreadID:  in.ThreadID,
		FileName:  in.FileName,
		Media:     in.Media,
		MediaType: in.MediaType,
		Caption:   in.Caption,
	})
	if err != nil {
		return threadentity.Message{}, nil, err
	}
	return out.Message, out.Counts, nil
}

func (a *chatAPIAdapter) DeleteMessage(ctx context.Context, threadID string, messageID int64) (*threadentity.Counts, error) {
	out, err := a.client.DeleteMessage(ctx, threadID, messageID)
	if err != nil {
		return nil, err
	}
	return out.Counts, nil
}

// feedAPIAdapter adapts chatapi.Client to feedservice.FeedAPI
type feedAPIAdapter struct {
	client *chatapi.Client
}

func (a *feedAPIAdapter) GetFeed(ctx context.Context, limit, replyLimit int) ([]feedentity.Entry, []personaentity.Persona, feedentity.Settings, error) {
	out, err := a.client.GetFeed(ctx, chatapi.GetFeedInput{
		Limit:      limit,
		ReplyLimit: replyLimit,
	})
	if err != nil {
		return nil, nil, feedentity.Settings{}, err
	}
	return out.Entries, out.Personas, out.Settings, nil
}

func (a *feedAPIAdapter) CreatePost(ctx context.Context, parentID int64, text, mediaURL string) (feedentity.Post, error) {
	out, err := a.client.CreatePost(ctx, chatapi.CreatePostInput{
		ParentID: parentID,
		Text:     text,
		MediaURL: mediaURL,
	})
	if err != nil {
		return feedentity.Post{}, err
	}
	return out.Post, nil
}

func (a *feedAPIAdapter) GetSettings(ctx context.Context) (feedentity.Settings, error) {
	return a.client.GetFeedSettings(ctx)
}

func (a *feedAPIAdapter) PatchSettings(ctx context.Context, title, ruleText *string, enabled *bool) (feedentity.Settings, error) {
	return a.client.PatchFeedSettings(ctx, chatapi.PatchFeedSettingsInput{
		Title:    title,
		RuleText: ruleText,
		Enabled:  enabled,
	})
}

// personaAPIAdapter adapts chatapi.Client to personaservice.PersonaAPI
type personaAPIAdapter struct {
	client *chatapi.Client
}

func (a *personaAPIAdapter) ListPersonas(ctx context.Context) ([]personaentity.Persona, error) {
	return a.client.ListPersonas(ctx)
}

func (a *personaAPIAdapter) CreatePersona(ctx context.Context, in personaservice.CreateInput) (personaentity.Persona, error) {
	return a.client.CreatePersona(ctx, chatapi.CreatePersonaInput{
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		Tone:        in.Tone,
		SortOrder:   in.SortOrder,
	})
}

func (a *personaAPIAdapter) UpdatePersona(ctx context.Context, in personaservice.UpdateInput) (personaentity.Persona, error) {
	return a.client.UpdatePersona(ctx, chatapi.UpdatePersonaInput{
		ID:          in.ID,
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		Tone:        in.Tone,
		IsActive:    in.IsActive,
		SortOrder:   in.SortOrder,
	})
}

func (a *personaAPIAdapter) DeletePersona(ctx context.Context, id int64) error {
	return a.client.DeletePersona(ctx, id)
}
