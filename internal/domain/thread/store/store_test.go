package store

import (
	"reflect"
	"testing"
	"time"

	personaentity "github.com/vadim/chatlink/internal/domain/persona/entity"
	"github.com/vadim/chatlink/internal/domain/thread/entity"
)

func msg(id int64, threadID, text string) entity.Message {
	return entity.Message{
		ID:        id,
		ThreadID:  threadID,
		Sender:    entity.SenderUser,
		Kind:      entity.KindText,
		Text:      text,
		Timestamp: time.Unix(1700000000+id, 0).UTC(),
	}
}

func ids(log []entity.Message) []int64 {
	out := make([]int64, len(log))
	for i, m := range log {
		out[i] = m.ID
	}
	return out
}

func TestMergeMessages(t *testing.T) {
	t.Run("overwrites existing and appends new", func(t *testing.T) {
		s := New()
		s.MergeMessages("t1", []entity.Message{msg(101, "t1", "a"), msg(102, "t1", "b")}, false)

		edited := msg(102, "t1", "b edited")
		log := s.MergeMessages("t1", []entity.Message{msg(103, "t1", "c"), edited}, true)

		if got, want := ids(log), []int64{101, 102, 103}; !reflect.DeepEqual(got, want) {
			t.Fatalf("Expected ids %v, got %v", want, got)
		}
		if log[1].Text != "b edited" {
			t.Errorf("Expected overwritten text %q, got %q", "b edited", log[1].Text)
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := New()
		batch := []entity.Message{msg(1, "t1", "a"), msg(2, "t1", "b")}

		first := s.MergeMessages("t1", batch, true)
		second := s.MergeMessages("t1", batch, true)

		if !reflect.DeepEqual(first, second) {
			t.Fatalf("Expected identical logs after re-merge, got %v then %v", first, second)
		}
	})

	t.Run("order independent for disjoint batches", func(t *testing.T) {
		a := []entity.Message{msg(1, "t1", "a"), msg(3, "t1", "c")}
		b := []entity.Message{msg(2, "t1", "b"), msg(4, "t1", "d")}

		s1 := New()
		s1.MergeMessages("t1", a, true)
		ab := s1.MergeMessages("t1", b, true)

		s2 := New()
		s2.MergeMessages("t1", b, true)
		ba := s2.MergeMessages("t1", a, true)

		if !reflect.DeepEqual(ab, ba) {
			t.Fatalf("Expected merge order not to matter, got %v vs %v", ids(ab), ids(ba))
		}
	})

	t.Run("non-incremental replaces the log", func(t *testing.T) {
		s := New()
		s.MergeMessages("t1", []entity.Message{msg(1, "t1", "old")}, false)

		log := s.MergeMessages("t1", []entity.Message{msg(5, "t1", "new")}, false)

		if got, want := ids(log), []int64{5}; !reflect.DeepEqual(got, want) {
			t.Fatalf("Expected full replace to %v, got %v", want, got)
		}
	})

	t.Run("updates watermark to highest id", func(t *testing.T) {
		s := New()
		s.MergeMessages("t1", []entity.Message{msg(7, "t1", "a"), msg(3, "t1", "b")}, false)

		wm, ok := s.Watermark("t1")
		if !ok || wm != 7 {
			t.Fatalf("Expected watermark 7, got %d (present=%v)", wm, ok)
		}
	})

	t.Run("empty replace clears watermark", func(t *testing.T) {
		s := New()
		s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, false)
		s.MergeMessages("t1", nil, false)

		if _, ok := s.Watermark("t1"); ok {
			t.Fatal("Expected no watermark after empty replace")
		}
	})

	t.Run("refreshes thread preview", func(t *testing.T) {
		s := New()
		s.ReplaceThreads([]entity.Thread{{ID: "t1"}})
		s.MergeMessages("t1", []entity.Message{msg(1, "t1", "hello"), msg(2, "t1", "world")}, false)

		th, ok := s.Thread("t1")
		if !ok {
			t.Fatal("Expected thread t1 to exist")
		}
		if th.LastMessage == nil || th.LastMessage.ID != 2 || th.LastMessage.Snippet != "world" {
			t.Fatalf("Expected preview of message 2, got %+v", th.LastMessage)
		}
	})

	t.Run("merge does not touch unread counters", func(t *testing.T) {
		s := New()
		s.ReplaceThreads([]entity.Thread{{ID: "t1", UnreadUser: 3, UnreadAgent: 1}})
		s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, true)
		s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, true)

		th, _ := s.Thread("t1")
		if th.UnreadUser != 3 || th.UnreadAgent != 1 {
			t.Fatalf("Expected unread counters untouched, got user=%d agent=%d", th.UnreadUser, th.UnreadAgent)
		}
	})
}

func TestReplaceThreads(t *testing.T) {
	t.Run("keeps logs for omitted threads", func(t *testing.T) {
		s := New()
		s.ReplaceThreads([]entity.Thread{{ID: "t1"}, {ID: "t2"}})
		s.MergeMessages("t2", []entity.Message{msg(1, "t2", "a")}, false)

		// A filtered search result lists only t1.
		s.ReplaceThreads([]entity.Thread{{ID: "t1"}})

		if got := s.Messages("t2"); len(got) != 1 {
			t.Fatalf("Expected t2 log to survive, got %d messages", len(got))
		}
		if _, ok := s.Watermark("t2"); !ok {
			t.Fatal("Expected t2 watermark to survive")
		}
	})
}

func TestUpsertThread(t *testing.T) {
	s := New()
	s.ReplaceThreads([]entity.Thread{{ID: "t1"}})

	s.UpsertThread(entity.Thread{ID: "t2"})
	threads := s.Threads()
	if len(threads) != 2 || threads[0].ID != "t2" {
		t.Fatalf("Expected new thread prepended, got %+v", threads)
	}

	s.UpsertThread(entity.Thread{ID: "t1", IsFavorite: true})
	threads = s.Threads()
	if len(threads) != 2 || !threads[1].IsFavorite {
		t.Fatalf("Expected existing thread replaced in place, got %+v", threads)
	}
}

func TestApplyPatch(t *testing.T) {
	t.Run("present fields win, absent fields survive", func(t *testing.T) {
		s := New()
		last := &entity.LastMessage{ID: 9, Snippet: "hi"}
		s.ReplaceThreads([]entity.Thread{{
			ID:          "t1",
			Persona:     personaentity.Persona{ID: 4, DisplayName: "Iris"},
			UserName:    "Dana",
			LastMessage: last,
			UnreadUser:  2,
		}})

		fav := true
		s.ApplyPatch(entity.ThreadPatch{ID: "t1", IsFavorite: &fav})

		th, _ := s.Thread("t1")
		if !th.IsFavorite {
			t.Error("Expected favorite to be set")
		}
		if th.UserName != "Dana" {
			t.Errorf("Expected user name preserved, got %q", th.UserName)
		}
		if th.Persona.ID != 4 {
			t.Errorf("Expected persona preserved, got %+v", th.Persona)
		}
		if th.LastMessage == nil || th.LastMessage.ID != 9 {
			t.Errorf("Expected last message preserved, got %+v", th.LastMessage)
		}
		if th.UnreadUser != 2 {
			t.Errorf("Expected unread count preserved, got %d", th.UnreadUser)
		}
	})

	t.Run("untoggles booleans explicitly", func(t *testing.T) {
		s := New()
		s.ReplaceThreads([]entity.Thread{{ID: "t1", IsFavorite: true, IsLocked: true}})

		off := false
		s.ApplyPatch(entity.ThreadPatch{ID: "t1", IsFavorite: &off})

		th, _ := s.Thread("t1")
		if th.IsFavorite {
			t.Error("Expected favorite cleared")
		}
		if !th.IsLocked {
			t.Error("Expected lock preserved")
		}
	})

	t.Run("unknown thread is discarded", func(t *testing.T) {
		s := New()
		s.ReplaceThreads([]entity.Thread{{ID: "t1"}})

		fav := true
		s.ApplyPatch(entity.ThreadPatch{ID: "nope", IsFavorite: &fav})

		if got := s.Threads(); len(got) != 1 || got[0].IsFavorite {
			t.Fatalf("Expected directory unchanged, got %+v", got)
		}
	})
}

func TestDeleteThread(t *testing.T) {
	s := New()
	s.ReplaceThreads([]entity.Thread{{ID: "t1"}, {ID: "t2"}})
	s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, false)

	s.DeleteThread("t1")

	if _, ok := s.Thread("t1"); ok {
		t.Error("Expected thread removed")
	}
	if got := s.Messages("t1"); len(got) != 0 {
		t.Errorf("Expected log purged, got %d messages", len(got))
	}
	if _, ok := s.Watermark("t1"); ok {
		t.Error("Expected watermark purged")
	}
}

func TestRemoveMessage(t *testing.T) {
	s := New()
	s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a"), msg(2, "t1", "b")}, false)

	s.RemoveMessage("t1", 2)

	if got := ids(s.Messages("t1")); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("Expected [1], got %v", got)
	}
	// The deleted tail must not be re-fetched.
	if wm, _ := s.Watermark("t1"); wm != 2 {
		t.Fatalf("Expected watermark kept at 2, got %d", wm)
	}
}

func TestSetCounts(t *testing.T) {
	s := New()
	s.SetCounts(&entity.Counts{GlobalActive: 5, PrivateActive: 2})

	s.SetCounts(nil)

	if got := s.Counts(); got.GlobalActive != 5 || got.PrivateActive != 2 {
		t.Fatalf("Expected nil to leave previous counts, got %+v", got)
	}
}

func TestSubscribe(t *testing.T) {
	s := New()
	var seen int
	unsub := s.Subscribe(func(Snapshot) { seen++ })

	s.ReplaceThreads([]entity.Thread{{ID: "t1"}})
	s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, false)
	if seen != 2 {
		t.Fatalf("Expected 2 notifications, got %d", seen)
	}

	unsub()
	s.ReplaceThreads(nil)
	if seen != 2 {
		t.Fatalf("Expected no notification after unsubscribe, got %d", seen)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := New()
	s.ReplaceThreads([]entity.Thread{{ID: "t1"}})
	s.MergeMessages("t1", []entity.Message{msg(1, "t1", "a")}, false)

	snap := s.Snapshot()
	snap.Threads[0].ID = "mutated"
	snap.Logs["t1"][0].Text = "mutated"

	if th, _ := s.Thread("t1"); th.ID != "t1" {
		t.Error("Expected store threads unaffected by snapshot mutation")
	}
	if got := s.Messages("t1"); got[0].Text != "a" {
		t.Error("Expected store log unaffected by snapshot mutation")
	}
}
