package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
)

const trackURLPrefix = "https://open.spotify.com/track/"

// ForwardResult describes a message that reached the append step.
type ForwardResult struct {
	ChannelID  string
	PlaylistID string
	TrackID    string
	TrackURL   string
	Refreshed  bool // the credential was refreshed on the way
}

// Forward runs the message-triggered pipeline for one inbound channel
// message: resolve the channel's subscription, extract a track URL, refresh
// the owner's credential if stale, and insert the track at the top of the
// subscribed playlist.
//
// A missing subscription, a message without a track URL, an orphaned
// subscription, or a failed refresh are all silent no-ops returning
// (nil, nil); a bad message must never stop processing of later ones. An
// append failure returns the result alongside [shared.ErrUpstream] so the
// caller can report it, with no retry and no state change beyond a
// persisted refresh.
func (e *Engine) Forward(ctx context.Context, channelID, content string) (*ForwardResult, error) {
	if err := e.requireService(); err != nil {
		return nil, err
	}

	var result *ForwardResult
	var appendErr error
	var owner string

	err := e.dir.Update(func(tx *store.Tx) error {
		sub, ok := tx.Subscription(channelID)
		if !ok {
			return nil
		}
		owner = sub.OwnerUserID

		trackURL := ExtractTrackURL(content)
		if trackURL == "" {
			return nil
		}

		cred, ok := tx.Credential(sub.OwnerUserID)
		if !ok {
			// Orphaned subscription: the owner unlinked on a path that
			// kept the record. Skip the message, leave the record alone.
			e.logger.Warnf("channel %s subscription owner %s has no credential", channelID, sub.OwnerUserID)
			return nil
		}

		refreshedCred := false
		if !cred.Valid(e.now()) {
			grant, err := e.svc.Refresh(ctx, cred.RefreshToken)
			if err != nil {
				e.logger.Warnf("refresh failed for user %s: %v", sub.OwnerUserID, err)
				return nil
			}
			cred = refreshed(cred, grant)
			tx.PutCredential(cred)
			refreshedCred = true
		}

		trackID := TrackIDFromURL(trackURL)
		result = &ForwardResult{
			ChannelID:  channelID,
			PlaylistID: sub.PlaylistID,
			TrackID:    trackID,
			TrackURL:   trackURL,
			Refreshed:  refreshedCred,
		}

		if err := e.svc.AddTrack(ctx, cred.AccessToken, sub.TargetUserID, sub.PlaylistID, TrackURI(trackID), 0); err != nil {
			appendErr = fmt.Errorf("%w: %v", shared.ErrUpstream, err)
		}

		// Returning nil keeps a refreshed credential on its way to disk
		// even when the append itself failed.
		return nil
	})
	if err != nil {
		e.logger.Errorf("forward on channel %s: %v", channelID, err)
	}

	if appendErr != nil {
		return result, appendErr
	}
	if result != nil {
		e.logger.Infof("forwarded track %s to playlist %s", result.TrackID, result.PlaylistID)
		if e.history != nil {
			if err := e.history.Record(channelID, owner, result.PlaylistID, result.TrackID); err != nil {
				e.logger.Warnf("failed to record forward: %v", err)
			}
		}
	}
	return result, nil
}

// ExtractTrackURL scans a message body for the first track URL in original
// content. Lines whose first character is the quote marker '>' are skipped
// as forwarded text; remaining lines are split on whitespace and the first
// token with the track URL shape wins.
func ExtractTrackURL(body string) string {
	if !strings.Contains(body, trackURLPrefix) {
		return ""
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, ">") {
			continue
		}
		for _, token := range strings.Fields(line) {
			if strings.HasPrefix(token, trackURLPrefix) {
				return token
			}
		}
	}

	return ""
}

// TrackIDFromURL extracts the canonical track id from a track URL, dropping
// any query string.
func TrackIDFromURL(trackURL string) string {
	id := trackURL[strings.LastIndex(trackURL, "/")+1:]
	if i := strings.Index(id, "?"); i >= 0 {
		id = id[:i]
	}
	return id
}

// TrackURI builds the provider-native track URI from a track id.
func TrackURI(trackID string) string {
	return "spotify:track:" + trackID
}
