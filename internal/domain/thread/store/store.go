package store

import (
	"sort"
	"sync"

	"github.com/vadim/chatlink/internal/domain/thread/entity"
)

// snippetLength bounds the denormalized last-message preview text.
const snippetLength = 120

// Snapshot is an immutable view of the store handed to observers and
// readers. Slices and maps are copies; mutating a snapshot never touches
// the store.
type Snapshot struct {
	Threads []entity.Thread
	Logs    map[string][]entity.Message
	Counts  entity.Counts
}

// Store is the single mutable cell holding the thread directory, per-thread
// message logs and incremental watermarks. All mutation goes through the
// reconciliation methods below; each mutation completes atomically with
// respect to observers before the next is processed.
type Store struct {
	mu         sync.RWMutex
	threads    []entity.Thread
	logs       map[string][]entity.Message
	watermarks map[string]int64
	counts     entity.Counts

	subMu sync.Mutex
	subs  map[int]func(Snapshot)
	nextS int
}

// New creates an empty thread store.
func New() *Store {
	return &Store{
		logs:       make(map[string][]entity.Message),
		watermarks: make(map[string]int64),
		subs:       make(map[int]func(Snapshot)),
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

	snap := Snapshot{
		Threads: append([]entity.Thread(nil), s.threads...),
		Logs:    make(map[string][]entity.Message, len(s.logs)),
		Counts:  copyCounts(s.counts),
	}
	for id, log := range s.logs {
		snap.Logs[id] = append([]entity.Message(nil), log...)
	}
	return snap
}

// Threads returns a copy of the thread directory.
func (s *Store) Threads() []entity.Thread {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Thread(nil), s.threads...)
}

// Thread returns the thread with the given identifier, if present.
func (s *Store) Thread(id string) (entity.Thread, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.threads {
		if t.ID == id {
			return t, true
		}
	}
	return entity.Thread{}, false
}

// Messages returns a copy of a thread's message log.
func (s *Store) Messages(threadID string) []entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Message(nil), s.logs[threadID]...)
}

// Watermark returns the highest message identifier merged into a thread's
// log, and whether one exists.
func (s *Store) Watermark(threadID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wm, ok := s.watermarks[threadID]
	return wm, ok
}

// Counts returns the last aggregate snapshot received from the server.
func (s *Store) Counts() entity.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCounts(s.counts)
}

func copyCounts(c entity.Counts) entity.Counts {
	out := c
	if c.PrivateActiveByUser != nil {
		out.PrivateActiveByUser = make(map[string]int, len(c.PrivateActiveByUser))
		for k, v := range c.PrivateActiveByUser {
			out.PrivateActiveByUser[k] = v
		}
	}
	return out
}

// MergeMessages combines a fetched batch with a thread's local log. When
// incremental is false the previous log is discarded and rebuilt from the
// batch alone. Incoming messages overwrite in place when their identifier
// is already present (the server is authoritative for mutable fields) and
// append otherwise; the result is sorted by identifier ascending, which
// equals chronological order. The operation is idempotent and updates the
// thread's watermark to the maximum identifier seen.
func (s *Store) MergeMessages(threadID string, batch []entity.Message, incremental bool) []entity.Message {
	s.mu.Lock()

	var log []entity.Message
	if incremental {
		log = append(log, s.logs[threadID]...)
	}

	index := make(map[int64]int, len(log))
	for i, msg := range log {
		index[msg.ID] = i
	}

	for _, msg := range batch {
		if pos, ok := index[msg.ID]; ok {
			log[pos] = msg
			continue
		}
		index[msg.ID] = len(log)
		log = append(log, msg)
	}

	sort.Slice(log, func(i, j int) bool { return log[i].ID < log[j].ID })

	s.logs[threadID] = log
	if len(log) > 0 {
		s.watermarks[threadID] = log[len(log)-1].ID
	} else {
		delete(s.watermarks, threadID)
	}
	s.refreshPreviewLocked(threadID)
	s.mu.Unlock()

	s.notify()
	return append([]entity.Message(nil), log...)
}

// refreshPreviewLocked keeps the thread's denormalized last-message preview
// and activity timestamp in step with its log. Counters are untouched:
// unread counts come only from server snapshots, so merges stay idempotent.
func (s *Store) refreshPreviewLocked(threadID string) {
	log := s.logs[threadID]
	if len(log) == 0 {
		return
	}
	last := log[len(log)-1]

	for i, t := range s.threads {
		if t.ID != threadID {
			continue
		}
		snippet := last.Text
		if len(snippet) > snippetLength {
			snippet = snippet[:snippetLength]
		}
		s.threads[i].LastMessage = &entity.LastMessage{
			ID:        last.ID,
			Kind:      last.Kind,
			Snippet:   snippet,
			Timestamp: last.Timestamp,
		}
		if last.Timestamp.After(s.threads[i].LastActivityAt) {
			s.threads[i].LastActivityAt = last.Timestamp
		}
		return
	}
}

// ReplaceThreads swaps in a freshly fetched thread directory wholesale.
// Message logs and watermarks for threads that survive are kept; logs for
// threads no longer listed are retained too, since a filtered search result
// must not purge data for threads it merely omits.
func (s *Store) ReplaceThreads(threads []entity.Thread) {
	s.mu.Lock()
	s.threads = append([]entity.Thread(nil), threads...)
	s.mu.Unlock()

	s.notify()
}

// UpsertThread inserts a newly created thread at the front of the
// directory, or replaces it in place when already listed.
func (s *Store) UpsertThread(t entity.Thread) {
	s.mu.Lock()
	replaced := false
	for i := range s.threads {
		if s.threads[i].ID == t.ID {
			s.threads[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		s.threads = append([]entity.Thread{t}, s.threads...)
	}
	s.mu.Unlock()

	s.notify()
}

// ApplyPatch merges a single-thread patch response into the directory.
// Present fields win; absent fields keep their previous local value, so a
// partial response never blanks data it did not touch. A patch for an
// unknown thread is silently discarded.
func (s *Store) ApplyPatch(patch entity.ThreadPatch) {
	s.mu.Lock()

	pos := -1
	for i := range s.threads {
		if s.threads[i].ID == patch.ID {
			pos = i
			break
		}
	}
	if pos < 0 {
		s.mu.Unlock()
		return
	}

	t := s.threads[pos]
	if patch.Persona != nil {
		t.Persona = *patch.Persona
	}
	if patch.IsLocked != nil {
		t.IsLocked = *patch.IsLocked
	}
	if patch.IsFavorite != nil {
		t.IsFavorite = *patch.IsFavorite
	}
	if patch.UnreadUser != nil && *patch.UnreadUser >= 0 {
		t.UnreadUser = *patch.UnreadUser
	}
	if patch.UnreadAgent != nil && *patch.UnreadAgent >= 0 {
		t.UnreadAgent = *patch.UnreadAgent
	}
	if patch.LastMessage != nil {
		t.LastMessage = patch.LastMessage
	}
	if patch.UserName != "" {
		t.UserName = patch.UserName
	}
	if patch.UserEmail != "" {
		t.UserEmail = patch.UserEmail
	}
	if patch.UserMobile != "" {
		t.UserMobile = patch.UserMobile
	}
	if patch.Presence != "" {
		t.Presence = patch.Presence
	}
	s.threads[pos] = t
	s.mu.Unlock()

	s.notify()
}

// DeleteThread removes a thread, its message log and its watermark in one
// atomic update.
func (s *Store) DeleteThread(threadID string) {
	s.mu.Lock()
	for i := range s.threads {
		if s.threads[i].ID == threadID {
			s.threads = append(s.threads[:i], s.threads[i+1:]...)
			break
		}
	}
	delete(s.logs, threadID)
	delete(s.watermarks, threadID)
	s.mu.Unlock()

	s.notify()
}

// RemoveMessage deletes a single message from a thread's log. The watermark
// is left as is: it marks the highest identifier ever merged, so a deleted
// tail message is not re-fetched.
func (s *Store) RemoveMessage(threadID string, messageID int64) {
	s.mu.Lock()
	log := s.logs[threadID]
	for i := range log {
		if log[i].ID == messageID {
			s.logs[threadID] = append(log[:i], log[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.notify()
}

// SetCounts replaces the aggregate snapshot wholesale. A nil value leaves
// the previous snapshot in place, since not every write response carries
// one.
func (s *Store) SetCounts(c *entity.Counts) {
	if c == nil {
		return
	}
	s.mu.Lock()
	s.counts = copyCounts(*c)
	s.mu.Unlock()

	s.notify()
}
