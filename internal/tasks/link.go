package tasks

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ethurin/tracknest/internal/models"
	"github.com/ethurin/tracknest/internal/services"
	"github.com/ethurin/tracknest/internal/shared"
	"github.com/ethurin/tracknest/internal/store"
)

// RequestLink starts the OAuth handshake for a chat user.
//
// Returns the authorization URL carrying a fresh single-use state token, or
// [shared.ErrAlreadyLinked] when a credential already exists. The redirect
// capture itself belongs to an external collaborator; the state token is not
// retained here.
func (e *Engine) RequestLink(ctx context.Context, userID string) (string, error) {
	if err := e.requireService(); err != nil {
		return "", err
	}

	var authURL string

	err := e.dir.View(func(tx *store.Tx) error {
		if _, ok := tx.Credential(userID); ok {
			return shared.ErrAlreadyLinked
		}
		authURL = e.svc.AuthURL(shared.NewStateToken())
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Infof("issued authorization url for user %s", userID)
	return authURL, nil
}

// CompleteLink finishes the handshake with the redirect payload the user
// pasted back, stores the credential, and returns a display name for the
// confirmation message.
//
// Nothing is stored on failure.
func (e *Engine) CompleteLink(ctx context.Context, userID, payload string) (string, error) {
	if err := e.requireService(); err != nil {
		return "", err
	}

	code, err := parseExchangePayload(payload)
	if err != nil {
		return "", err
	}

	var displayName string

	err = e.dir.Update(func(tx *store.Tx) error {
		grant, err := e.svc.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
		}

		profile, err := e.svc.Me(ctx, grant.AccessToken)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
		}

		tx.PutCredential(models.CredentialRecord{
			UserID:       userID,
			AccessToken:  grant.AccessToken,
			RefreshToken: grant.RefreshToken,
			ExpiresAt:    grant.ExpiresAt,
		})

		displayName = profile.DisplayName
		if displayName == "" {
			displayName = profile.ID
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	e.logger.Infof("linked account for user %s", userID)
	return displayName, nil
}

// Unlink removes the user's credential and, unconditionally, every
// subscription the user owns. Returns the number of subscriptions purged,
// or [shared.ErrNotLinked] when no credential existed.
func (e *Engine) Unlink(ctx context.Context, userID string) (int, error) {
	purged := 0

	err := e.dir.Update(func(tx *store.Tx) error {
		purged = tx.RemoveSubscriptionsByOwner(userID)
		if !tx.RemoveCredential(userID) {
			return shared.ErrNotLinked
		}
		return nil
	})
	if err != nil {
		return purged, err
	}

	e.logger.Infof("unlinked user %s, purged %d subscription(s)", userID, purged)
	return purged, nil
}

// parseExchangePayload extracts the authorization code from the redirect URL
// the user pasted back after approving access.
func parseExchangePayload(payload string) (string, error) {
	if payload == "" {
		return "", fmt.Errorf("%w: empty exchange payload", shared.ErrBadFormat)
	}

	u, err := url.Parse(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrBadFormat, err)
	}

	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: redirect url has no code parameter", shared.ErrBadFormat)
	}

	return code, nil
}

// refreshed applies a token grant to a credential record in place.
func refreshed(rec models.CredentialRecord, grant *services.TokenGrant) models.CredentialRecord {
	rec.AccessToken = grant.AccessToken
	rec.RefreshToken = grant.RefreshToken
	rec.ExpiresAt = grant.ExpiresAt
	return rec
}
