package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ethurin/tracknest/internal/services"
	"github.com/ethurin/tracknest/internal/store"
	"github.com/ethurin/tracknest/internal/tasks"
	tu "github.com/ethurin/tracknest/internal/testing"
)

func newTestDispatcher(t *testing.T, svc services.Service) *Dispatcher {
	t.Helper()

	dir, err := store.Open("", nil)
	if err != nil {
		t.Fatalf("failed to open directory: %v", err)
	}

	engine := tasks.NewEngine(tasks.EngineOpts{
		Directory: dir,
		Service:   svc,
		Now:       func() time.Time { return time.Unix(1_000_000, 0) },
	})
	return NewDispatcher(engine, nil)
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown command yields no reply", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		if reply := d.HandleCommand(ctx, Invocation{Name: "dance", AuthorID: "u1"}); reply != "" {
			t.Errorf("expected empty reply, got %q", reply)
		}
	})

	t.Run("info with no subscription", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		reply := d.HandleCommand(ctx, Invocation{Name: "info", ChannelID: "c1"})
		if reply != "There's no playlist connected to this channel" {
			t.Errorf("unexpected reply: %q", reply)
		}
	})

	t.Run("link then follow then forward then purge", func(t *testing.T) {
		svc := &tu.FakeService{
			Grant:       &services.TokenGrant{AccessToken: "at", RefreshToken: "rt", ExpiresAt: 2_000_000},
			ProfileID:   "sp1",
			DisplayName: "Sam",
		}
		d := newTestDispatcher(t, svc)

		// Asking to link yields an authorization url.
		reply := d.HandleCommand(ctx, Invocation{Name: "link", AuthorID: "u1"})
		if !strings.Contains(reply, "https://") {
			t.Fatalf("expected a link url in reply, got %q", reply)
		}

		// Completing the handshake greets the user by display name.
		reply = d.HandleCommand(ctx, Invocation{
			Name:     "link",
			AuthorID: "u1",
			Argument: "http://localhost:8080/callback?code=abc&state=s",
		})
		if reply != "Welcome Sam, your account is linked!" {
			t.Fatalf("unexpected link reply: %q", reply)
		}

		// Linking again without a payload reports the existing link.
		reply = d.HandleCommand(ctx, Invocation{Name: "link", AuthorID: "u1"})
		if reply != "Your account is already linked" {
			t.Fatalf("unexpected relink reply: %q", reply)
		}

		// Following with an owned playlist succeeds.
		reply = d.HandleCommand(ctx, Invocation{
			Name:      "follow",
			AuthorID:  "u1",
			ChannelID: "c1",
			Argument:  "spotify:playlist:p1",
		})
		if reply != "Successfully followed text channel!" {
			t.Fatalf("unexpected follow reply: %q", reply)
		}

		// Info now reports the connected playlist.
		reply = d.HandleCommand(ctx, Invocation{Name: "info", ChannelID: "c1"})
		if !strings.Contains(reply, "https://open.spotify.com/playlist/p1") {
			t.Fatalf("unexpected info reply: %q", reply)
		}

		// A channel message with a track link triggers exactly one append.
		reply = d.HandleMessage(ctx, Message{
			ChannelID: "c1",
			AuthorID:  "u2",
			Content:   "check this https://open.spotify.com/track/T1?si=x",
		})
		if reply != "Added https://open.spotify.com/track/T1?si=x to playlist" {
			t.Fatalf("unexpected forward reply: %q", reply)
		}
		if len(svc.AddCalls) != 1 {
			t.Fatalf("expected exactly one append, got %d", len(svc.AddCalls))
		}
		if svc.AddCalls[0].Position != 0 {
			t.Errorf("expected insert at position 0, got %d", svc.AddCalls[0].Position)
		}

		// Purge removes the subscription.
		reply = d.HandleCommand(ctx, Invocation{Name: "purge", AuthorID: "u1"})
		if reply != "Purged 1 channel(s)." {
			t.Fatalf("unexpected purge reply: %q", reply)
		}

		// Later messages in the channel are no-ops.
		reply = d.HandleMessage(ctx, Message{
			ChannelID: "c1",
			Content:   "https://open.spotify.com/track/T2",
		})
		if reply != "" {
			t.Errorf("expected no reply after purge, got %q", reply)
		}
		if len(svc.AddCalls) != 1 {
			t.Errorf("expected no further appends, got %d", len(svc.AddCalls))
		}
	})

	t.Run("follow rejections", func(t *testing.T) {
		t.Run("not linked", func(t *testing.T) {
			d := newTestDispatcher(t, &tu.FakeService{})

			reply := d.HandleCommand(ctx, Invocation{Name: "follow", AuthorID: "u1", ChannelID: "c1", Argument: "spotify:playlist:p1"})
			if reply != "Your account is not linked yet. Use the link command to link it." {
				t.Errorf("unexpected reply: %q", reply)
			}
		})

		t.Run("bad format", func(t *testing.T) {
			d := newTestDispatcher(t, &tu.FakeService{})

			reply := d.HandleCommand(ctx, Invocation{Name: "follow", AuthorID: "u1", ChannelID: "c1", Argument: "notaplaylisturi"})
			if !strings.Contains(reply, "spotify:playlist:") {
				t.Errorf("unexpected reply: %q", reply)
			}
		})
	})

	t.Run("unlink when not linked", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		reply := d.HandleCommand(ctx, Invocation{Name: "unlink", AuthorID: "u1"})
		if reply != "Your account isn't linked yet, can't unlink." {
			t.Errorf("unexpected reply: %q", reply)
		}
	})

	t.Run("purge with nothing connected", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		reply := d.HandleCommand(ctx, Invocation{Name: "purge", AuthorID: "u1"})
		if reply != "You have no playlists connected." {
			t.Errorf("unexpected reply: %q", reply)
		}
	})
}

func TestParseInvocation(t *testing.T) {
	msg := func(content string) Message {
		return Message{ChannelID: "c1", AuthorID: "u1", Content: content}
	}

	t.Run("parses a prefixed command", func(t *testing.T) {
		inv, ok := ParseInvocation("~", msg("~follow spotify:playlist:p1"))
		if !ok {
			t.Fatal("expected an invocation")
		}
		if inv.Name != "follow" || inv.Argument != "spotify:playlist:p1" {
			t.Errorf("unexpected invocation: %+v", inv)
		}
		if inv.AuthorID != "u1" || inv.ChannelID != "c1" {
			t.Errorf("expected author and channel carried over: %+v", inv)
		}
	})

	t.Run("command without an argument", func(t *testing.T) {
		inv, ok := ParseInvocation("~", msg("~unlink"))
		if !ok || inv.Name != "unlink" || inv.Argument != "" {
			t.Errorf("unexpected invocation: %+v ok=%v", inv, ok)
		}
	})

	t.Run("plain message is not an invocation", func(t *testing.T) {
		if _, ok := ParseInvocation("~", msg("have a listen https://open.spotify.com/track/AAA")); ok {
			t.Error("expected no invocation")
		}
	})

	t.Run("bare prefix is not an invocation", func(t *testing.T) {
		if _, ok := ParseInvocation("~", msg("~")); ok {
			t.Error("expected no invocation")
		}
	})

	t.Run("empty prefix never matches", func(t *testing.T) {
		if _, ok := ParseInvocation("", msg("follow x")); ok {
			t.Error("expected no invocation")
		}
	})
}

func TestHandleRaw(t *testing.T) {
	ctx := context.Background()

	t.Run("routes prefixed commands", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		reply := d.HandleRaw(ctx, "~", Message{ChannelID: "c1", AuthorID: "u1", Content: "~info"})
		if reply != "There's no playlist connected to this channel" {
			t.Errorf("unexpected reply: %q", reply)
		}
	})

	t.Run("routes plain messages to the forward pipeline", func(t *testing.T) {
		d := newTestDispatcher(t, &tu.FakeService{})

		reply := d.HandleRaw(ctx, "~", Message{ChannelID: "c1", Content: "https://open.spotify.com/track/AAA"})
		if reply != "" {
			t.Errorf("expected silent no-op without a subscription, got %q", reply)
		}
	})
}
