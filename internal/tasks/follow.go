package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethurin/tracknest/internal/models"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
)

const playlistURIPrefix = "spotify:playlist:"

// Follow verifies that the requesting user owns the referenced playlist and
// creates or overwrites the channel's subscription.
//
// The owning account id is re-derived from the live credential on every call
// rather than trusted from a cached value. Returns the playlist id on
// success; rejections are [shared.ErrBadFormat], [shared.ErrNotLinked],
// [shared.ErrCredentialExpired], [shared.ErrNotOwner], or
// [shared.ErrUpstream].
func (e *Engine) Follow(ctx context.Context, channelID, userID, playlistRef string) (string, error) {
	if err := e.requireService(); err != nil {
		return "", err
	}

	playlistID, err := ParsePlaylistRef(playlistRef)
	if err != nil {
		return "", err
	}

	err = e.dir.Update(func(tx *store.Tx) error {
		cred, ok := tx.Credential(userID)
		if !ok {
			return shared.ErrNotLinked
		}

		if !cred.Valid(e.now()) {
			grant, err := e.svc.Refresh(ctx, cred.RefreshToken)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrCredentialExpired, err)
			}
			cred = refreshed(cred, grant)
			tx.PutCredential(cred)
		}

		profile, err := e.svc.Me(ctx, cred.AccessToken)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
		}

		playlist, err := e.svc.Playlist(ctx, cred.AccessToken, playlistID)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
		}

		if playlist.ID != playlistID || playlist.OwnerID != profile.ID {
			return shared.ErrNotOwner
		}

		tx.PutSubscription(models.SubscriptionRecord{
			ChannelID:    channelID,
			OwnerUserID:  userID,
			TargetUserID: profile.ID,
			PlaylistID:   playlist.ID,
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Infof("channel %s now follows playlist %s for user %s", channelID, playlistID, userID)
	return playlistID, nil
}

// Purge removes every subscription owned by the user and returns the count
// removed. Zero is a reportable outcome, not an error.
func (e *Engine) Purge(ctx context.Context, userID string) (int, error) {
	purged := 0

	err := e.dir.Update(func(tx *store.Tx) error {
		purged = tx.RemoveSubscriptionsByOwner(userID)
		return nil
	})
	if err != nil {
		return purged, err
	}

	if purged > 0 {
		e.logger.Infof("purged %d subscription(s) for user %s", purged, userID)
	}
	return purged, nil
}

// Info returns the subscription for a channel, or [shared.ErrNoSubscription]
// when the channel follows nothing.
func (e *Engine) Info(ctx context.Context, channelID string) (models.SubscriptionRecord, error) {
	var sub models.SubscriptionRecord

	err := e.dir.View(func(tx *store.Tx) error {
		rec, ok := tx.Subscription(channelID)
		if !ok {
			return shared.ErrNoSubscription
		}
		sub = rec
		return nil
	})

	return sub, err
}

// ParsePlaylistRef validates the canonical playlist URI shape and extracts
// the playlist id.
func ParsePlaylistRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	id, ok := strings.CutPrefix(ref, playlistURIPrefix)
	if !ok || id == "" || strings.ContainsAny(id, ": /?") {
		return "", fmt.Errorf("%w: playlist reference must look like %sxxxxxxxx", shared.ErrBadFormat, playlistURIPrefix)
	}
	return id, nil
}

// PlaylistLink renders the public web URL for a playlist id.
func PlaylistLink(playlistID string) string {
	return "https://open.spotify.com/playlist/" + playlistID
}
