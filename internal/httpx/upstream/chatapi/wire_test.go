package chatapi

import (
	"encoding/json"
	"testing"
	"time"

	threadentity "github.com/vadim/chatlink/internal/domain/thread/entity"
)

func TestFlexID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"number", `42`, 42},
		{"string", `"42"`, 42},
		{"null", `null`, 0},
		{"garbage", `"abc"`, 0},
		{"empty string", `""`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f flexID
			if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if int64(f) != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, int64(f))
			}
		})
	}
}

func TestFlexTime(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		var f flexTime
		if err := json.Unmarshal([]byte(`"2024-03-01T10:00:00Z"`), &f); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		if !f.Time().Equal(want) {
			t.Errorf("Expected %v, got %v", want, f.Time())
		}
	})

	t.Run("unix seconds", func(t *testing.T) {
		var f flexTime
		if err := json.Unmarshal([]byte(`1709287200`), &f); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if f.Time().Unix() != 1709287200 {
			t.Errorf("Expected unix 1709287200, got %d", f.Time().Unix())
		}
	})

	t.Run("garbage is zero time", func(t *testing.T) {
		var f flexTime
		if err := json.Unmarshal([]byte(`"soon"`), &f); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !f.Time().IsZero() {
			t.Errorf("Expected zero time, got %v", f.Time())
		}
	})
}

func TestNormalizePersona(t *testing.T) {
	t.Run("drops record without id", func(t *testing.T) {
		if _, ok := normalizePersona(rawPersona{DisplayName: "Iris"}); ok {
			t.Fatal("Expected persona without id to be dropped")
		}
	})

	t.Run("is_active defaults to true", func(t *testing.T) {
		p, ok := normalizePersona(rawPersona{ID: 1, DisplayName: "Iris"})
		if !ok || !p.IsActive {
			t.Fatalf("Expected active persona, got %+v (ok=%v)", p, ok)
		}
	})

	t.Run("explicit false survives", func(t *testing.T) {
		off := false
		p, _ := normalizePersona(rawPersona{ID: 1, IsActive: &off})
		if p.IsActive {
			t.Fatal("Expected inactive persona")
		}
	})
}

func TestNormalizeMessage(t *testing.T) {
	t.Run("drops record without id", func(t *testing.T) {
		if _, ok := normalizeMessage(rawMessage{Text: "hi"}, "t1"); ok {
			t.Fatal("Expected message without id to be dropped")
		}
	})

	t.Run("clamps unknown sender to user", func(t *testing.T) {
		m, _ := normalizeMessage(rawMessage{ID: 1, Sender: "robot"}, "t1")
		if m.Sender != threadentity.SenderUser {
			t.Errorf("Expected sender clamped to user, got %q", m.Sender)
		}
	})

	t.Run("infers kind from media url", func(t *testing.T) {
		m, _ := normalizeMessage(rawMessage{ID: 1, Kind: "hologram", MediaURL: "https://cdn/x.jpg"}, "t1")
		if m.Kind != threadentity.KindMedia {
			t.Errorf("Expected media kind, got %q", m.Kind)
		}

		m, _ = normalizeMessage(rawMessage{ID: 2, Kind: "hologram"}, "t1")
		if m.Kind != threadentity.KindText {
			t.Errorf("Expected text kind, got %q", m.Kind)
		}
	})

	t.Run("fills thread id when absent", func(t *testing.T) {
		m, _ := normalizeMessage(rawMessage{ID: 1}, "t9")
		if m.ThreadID != "t9" {
			t.Errorf("Expected thread id t9, got %q", m.ThreadID)
		}

		m, _ = normalizeMessage(rawMessage{ID: 1, ThreadID: "own"}, "t9")
		if m.ThreadID != "own" {
			t.Errorf("Expected wire thread id kept, got %q", m.ThreadID)
		}
	})
}

func TestNormalizeThread(t *testing.T) {
	t.Run("drops record without id", func(t *testing.T) {
		if _, ok := normalizeThread(rawThread{UserName: "Dana"}); ok {
			t.Fatal("Expected thread without id to be dropped")
		}
	})

	t.Run("defaults absent fields", func(t *testing.T) {
		th, ok := normalizeThread(rawThread{ID: "t1"})
		if !ok {
			t.Fatal("Expected thread to normalize")
		}
		if th.IsLocked || th.IsFavorite || th.UnreadUser != 0 || th.UnreadAgent != 0 || th.LastMessage != nil {
			t.Fatalf("Expected zero defaults, got %+v", th)
		}
	})

	t.Run("clamps negative unread counts", func(t *testing.T) {
		n := -3
		th, _ := normalizeThread(rawThread{ID: "t1", UnreadUser: &n})
		if th.UnreadUser != 0 {
			t.Errorf("Expected clamp to 0, got %d", th.UnreadUser)
		}
	})
}

func TestNormalizeThreadPatch(t *testing.T) {
	t.Run("preserves field presence", func(t *testing.T) {
		fav := true
		p, ok := normalizeThreadPatch(rawThread{ID: "t1", IsFavorite: &fav})
		if !ok {
			t.Fatal("Expected patch to normalize")
		}
		if p.IsFavorite == nil || !*p.IsFavorite {
			t.Error("Expected favorite present and true")
		}
		if p.IsLocked != nil || p.UnreadUser != nil || p.Persona != nil {
			t.Errorf("Expected absent fields to stay nil, got %+v", p)
		}
	})

	t.Run("drops record without id", func(t *testing.T) {
		if _, ok := normalizeThreadPatch(rawThread{}); ok {
			t.Fatal("Expected patch without id to be dropped")
		}
	})
}

func TestNormalizeEntry(t *testing.T) {
	t.Run("sorts replies and clamps count", func(t *testing.T) {
		entry, ok := normalizeEntry(rawPost{
			ID:         50,
			ReplyCount: 1, // understated
			Replies: []rawPost{
				{ID: 62, ParentID: 50, CreatedAt: flexTime(time.Unix(120, 0))},
				{ID: 61, ParentID: 50, CreatedAt: flexTime(time.Unix(110, 0))},
			},
		})
		if !ok {
			t.Fatal("Expected entry to normalize")
		}
		if entry.Replies[0].ID != 61 || entry.Replies[1].ID != 62 {
			t.Errorf("Expected replies sorted by creation time, got %+v", entry.Replies)
		}
		if entry.ReplyCount != 2 {
			t.Errorf("Expected count clamped to 2, got %d", entry.ReplyCount)
		}
	})

	t.Run("drops reply posted as top-level", func(t *testing.T) {
		if _, ok := normalizeEntry(rawPost{ID: 9, ParentID: 5}); ok {
			t.Fatal("Expected reply not to form an entry")
		}
	})

	t.Run("skips invalid replies", func(t *testing.T) {
		entry, _ := normalizeEntry(rawPost{
			ID: 50,
			Replies: []rawPost{
				{ParentID: 50},         // no id
				{ID: 61},               // not a reply
				{ID: 62, ParentID: 50}, // valid
			},
		})
		if len(entry.Replies) != 1 || entry.Replies[0].ID != 62 {
			t.Fatalf("Expected single valid reply, got %+v", entry.Replies)
		}
	})
}

func TestNormalizeSettings(t *testing.T) {
	t.Run("enabled defaults to true", func(t *testing.T) {
		if s := normalizeSettings(rawSettings{Title: "Lounge"}); !s.Enabled {
			t.Fatal("Expected enabled default true")
		}
	})

	t.Run("explicit false survives", func(t *testing.T) {
		off := false
		if s := normalizeSettings(rawSettings{Enabled: &off}); s.Enabled {
			t.Fatal("Expected enabled false")
		}
	})
}
