package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/ethurin/tracknest/internal/models"
	"github.com/ethurin/tracknest/internal/services"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
	tu "github.com/ethurin/tracknest/internal/testing"
)

func TestParsePlaylistRef(t *testing.T) {
	cases := []struct {
		ref    string
		id     string
		wantOK bool
	}{
		{"spotify:playlist:abc123", "abc123", true},
		{"  spotify:playlist:abc123  ", "abc123", true},
		{"notaplaylisturi", "", false},
		{"spotify:playlist:", "", false},
		{"spotify:track:abc123", "", false},
		{"spotify:playlist:abc:def", "", false},
		{"https://open.spotify.com/playlist/abc123", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		id, err := ParsePlaylistRef(tc.ref)
		if tc.wantOK {
			if err != nil {
				t.Errorf("ref %q: expected no error, got %v", tc.ref, err)
			}
			if id != tc.id {
				t.Errorf("ref %q: expected id %q, got %q", tc.ref, tc.id, id)
			}
		} else if !errors.Is(err, shared.ErrBadFormat) {
			t.Errorf("ref %q: expected ErrBadFormat, got %v", tc.ref, err)
		}
	}
}

func TestFollow(t *testing.T) {
	ctx := context.Background()

	t.Run("bad format makes no network call", func(t *testing.T) {
		svc := &tu.FakeService{}
		engine, _ := newTestEngine(t, svc)

		_, err := engine.Follow(ctx, "c1", "u1", "notaplaylisturi")
		if !errors.Is(err, shared.ErrBadFormat) {
			t.Fatalf("expected ErrBadFormat, got %v", err)
		}
		if svc.MeCalls != 0 || svc.PlaylistCalls != 0 || svc.RefreshCalls != 0 {
			t.Error("expected no upstream calls for a malformed reference")
		}
	})

	t.Run("not linked", func(t *testing.T) {
		engine, _ := newTestEngine(t, &tu.FakeService{})

		_, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if !errors.Is(err, shared.ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})

	t.Run("expired credential refresh failure", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1", RefreshErr: errors.New("revoked")}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", RefreshToken: "rt", ExpiresAt: staleExpiry})

		_, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if !errors.Is(err, shared.ErrCredentialExpired) {
			t.Errorf("expected ErrCredentialExpired, got %v", err)
		}

		dir.View(func(tx *store.Tx) error {
			if _, ok := tx.Subscription("c1"); ok {
				t.Error("expected no subscription after refresh failure")
			}
			return nil
		})
	})

	t.Run("not owner creates no subscription", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1", Owner: "somebody-else"}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", ExpiresAt: freshExpiry})

		_, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}

		dir.View(func(tx *store.Tx) error {
			if _, ok := tx.Subscription("c1"); ok {
				t.Error("expected no subscription for unowned playlist")
			}
			return nil
		})
	})

	t.Run("resolved id mismatch is not owner", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1", PlaylistID: "different"}
		engine, _ := newTestEngine(t, svc)
		engineDirSeed(t, engine)

		_, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if !errors.Is(err, shared.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1", PlaylistErr: errors.New("500")}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", ExpiresAt: freshExpiry})

		_, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if !errors.Is(err, shared.ErrUpstream) {
			t.Errorf("expected ErrUpstream, got %v", err)
		}
	})

	t.Run("success writes the subscription", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1"}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", ExpiresAt: freshExpiry})

		playlistID, err := engine.Follow(ctx, "c1", "u1", testPlaylist)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if playlistID != "p1" {
			t.Errorf("expected playlist id p1, got %q", playlistID)
		}

		dir.View(func(tx *store.Tx) error {
			sub, ok := tx.Subscription("c1")
			if !ok {
				t.Fatal("expected subscription to exist")
			}
			want := models.SubscriptionRecord{ChannelID: "c1", OwnerUserID: "u1", TargetUserID: "sp1", PlaylistID: "p1"}
			if sub != want {
				t.Errorf("unexpected subscription: %+v", sub)
			}
			return nil
		})

		// The owning account id is derived live, once per follow.
		if svc.MeCalls != 1 {
			t.Errorf("expected exactly one profile fetch, got %d", svc.MeCalls)
		}
	})

	t.Run("expired credential refreshes then follows", func(t *testing.T) {
		svc := &tu.FakeService{
			ProfileID:    "sp1",
			RefreshGrant: &services.TokenGrant{AccessToken: "fresh", RefreshToken: "rt2", ExpiresAt: freshExpiry},
		}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", AccessToken: "stale", RefreshToken: "rt", ExpiresAt: staleExpiry})

		if _, err := engine.Follow(ctx, "c1", "u1", testPlaylist); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if svc.RefreshCalls != 1 {
			t.Errorf("expected exactly one refresh, got %d", svc.RefreshCalls)
		}

		dir.View(func(tx *store.Tx) error {
			rec, _ := tx.Credential("u1")
			if rec.AccessToken != "fresh" || rec.RefreshToken != "rt2" || rec.ExpiresAt != freshExpiry {
				t.Errorf("expected refreshed credential to be stored, got %+v", rec)
			}
			return nil
		})
	})

	t.Run("follow overwrites the channel's prior subscription", func(t *testing.T) {
		svc := &tu.FakeService{ProfileID: "sp1"}
		engine, dir := newTestEngine(t, svc)
		putCredential(t, dir, models.CredentialRecord{UserID: "u1", ExpiresAt: freshExpiry})
		putSubscription(t, dir, models.SubscriptionRecord{ChannelID: "c1", OwnerUserID: "old", PlaylistID: "old"})

		if _, err := engine.Follow(ctx, "c1", "u1", testPlaylist); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		dir.View(func(tx *store.Tx) error {
			sub, _ := tx.Subscription("c1")
			if sub.PlaylistID != "p1" || sub.OwnerUserID != "u1" {
				t.Errorf("expected overwrite, got %+v", sub)
			}
			_, subs := tx.Counts()
			if subs != 1 {
				t.Errorf("expected a single subscription, got %d", subs)
			}
			return nil
		})
	})
}

func engineDirSeed(t *testing.T, engine *Engine) {
	t.Helper()
	putCredential(t, engine.dir, models.CredentialRecord{UserID: "u1", ExpiresAt: freshExpiry})
}

func TestPurge(t *testing.T) {
	ctx := context.Background()

	t.Run("removes only the requester's subscriptions", func(t *testing.T) {
		engine, dir := newTestEngine(t, &tu.FakeService{})
		putSubscription(t, dir, models.SubscriptionRecord{ChannelID: "c1", OwnerUserID: "u1"})
		putSubscription(t, dir, models.SubscriptionRecord{ChannelID: "c2", OwnerUserID: "u2"})

		purged, err := engine.Purge(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if purged != 1 {
			t.Errorf("expected 1 purged, got %d", purged)
		}
	})

	t.Run("zero is a valid outcome", func(t *testing.T) {
		engine, _ := newTestEngine(t, &tu.FakeService{})

		purged, err := engine.Purge(ctx, "nobody")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if purged != 0 {
			t.Errorf("expected 0 purged, got %d", purged)
		}
	})
}

func TestInfo(t *testing.T) {
	ctx := context.Background()

	t.Run("no subscription", func(t *testing.T) {
		engine, _ := newTestEngine(t, &tu.FakeService{})

		_, err := engine.Info(ctx, "c1")
		if !errors.Is(err, shared.ErrNoSubscription) {
			t.Errorf("expected ErrNoSubscription, got %v", err)
		}
	})

	t.Run("returns the subscription", func(t *testing.T) {
		engine, dir := newTestEngine(t, &tu.FakeService{})
		putSubscription(t, dir, models.SubscriptionRecord{ChannelID: "c1", OwnerUserID: "u1", PlaylistID: "p1"})

		sub, err := engine.Info(ctx, "c1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if sub.PlaylistID != "p1" {
			t.Errorf("unexpected subscription: %+v", sub)
		}
	})
}

func TestPlaylistLink(t *testing.T) {
	if got := PlaylistLink("abc"); got != "https://open.spotify.com/playlist/abc" {
		t.Errorf("unexpected playlist link: %q", got)
	}
}
