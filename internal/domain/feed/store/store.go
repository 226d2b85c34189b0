package store

import (
	"sort"
	"sync"

	"github.com/vadim/chatlink/internal/domain/feed/entity"
	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
)

// Snapshot is an immutable view of the feed handed to observers and
// readers.
type Snapshot struct {
	Entries  []entity.Entry
	Personas []personaentity.Persona
	Settings entity.Settings
}

// Store is the single mutable cell holding the community feed: top-level
// entries with their materialized replies, the personas embedded in the
// last full fetch, and the feed display settings.
type Store struct {
	mu       sync.RWMutex
	entries  []entity.Entry
	personas []personaentity.Persona
	settings entity.Settings

	subMu sync.Mutex
	subs  map[int]func(Snapshot)
	nextS int
}

// New creates an empty feed store.
func New() *Store {
	return &Store{
		subs: make(map[int]func(Snapshot)),
	}
}

// Subscribe registers an observer invoked with a fresh snapshot after every
// mutation. The returned function unsubscribes.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextS
	s.nextS++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]entity.Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e
		entries[i].Replies = append([]entity.Post(nil), e.Replies...)
	}
	return Snapshot{
		Entries:  entries,
		Personas: append([]personaentity.Persona(nil), s.personas...),
		Settings: s.settings,
	}
}

// Entries returns a copy of the feed entries.
func (s *Store) Entries() []entity.Entry {
	return s.Snapshot().Entries
}

// Settings returns the current feed display settings.
func (s *Store) Settings() entity.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// ReplaceAll swaps in the result of a full feed reload. Server values are
// authoritative: locally incremented reply counts are overwritten verbatim.
func (s *Store) ReplaceAll(entries []entity.Entry, personas []personaentity.Persona, settings entity.Settings) {
	s.mu.Lock()
	s.entries = make([]entity.Entry, len(entries))
	for i, e := range entries {
		s.entries[i] = e
		s.entries[i].Replies = append([]entity.Post(nil), e.Replies...)
	}
	s.personas = append([]personaentity.Persona(nil), personas...)
	s.settings = settings
	s.mu.Unlock()

	s.notify()
}

// SetSettings replaces the feed display settings alone.
func (s *Store) SetSettings(settings entity.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.notify()
}

// IntegratePost merges one freshly created post into the feed. Top-level
// posts replace their entry's post in place (keeping already-fetched
// replies) or are prepended as a new entry. Replies replace-or-append
// inside their parent entry, keep replies sorted by creation time, and
// bump the reply count only when genuinely new. The return is false when a
// reply's parent is not held locally: the caller must fall back to a full
// reload, never fabricate a placeholder.
func (s *Store) IntegratePost(post entity.Post) bool {
	s.mu.Lock()

	if !post.IsReply() {
		for i := range s.entries {
			if s.entries[i].Post.ID == post.ID {
				s.entries[i].Post = post
				s.mu.Unlock()
				s.notify()
				return true
			}
		}
		entry := entity.Entry{Post: post, Replies: []entity.Post{}}
		s.entries = append([]entity.Entry{entry}, s.entries...)
		s.mu.Unlock()
		s.notify()
		return true
	}

	for i := range s.entries {
		if s.entries[i].Post.ID != post.ParentID {
			continue
		}

		replaced := false
		replies := s.entries[i].Replies
		for j := range replies {
			if replies[j].ID == post.ID {
				replies = append(replies[:j], replies[j+1:]...)
				replaced = true
				break
			}
		}
		replies = append(replies, post)
		sort.SliceStable(replies, func(a, b int) bool {
			return replies[a].CreatedAt.Before(replies[b].CreatedAt)
		})
		s.entries[i].Replies = replies
		if !replaced {
			s.entries[i].ReplyCount++
		}
		s.mu.Unlock()
		s.notify()
		return true
	}

	// Parent not materialized locally: the entry's position cannot be
	// guessed safely.
	s.mu.Unlock()
	return false
}
