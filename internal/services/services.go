// package services defines interface Service for the streaming-service API
package services

import (
	"context"
)

// Service defines the upstream operations the directory workflows depend on.
//
// Every call may fail with an opaque upstream error; callers map failures to
// [shared.ErrUpstream] rather than inspecting error internals. Credentials
// are per-user, so each authenticated call takes the access token to use.
type Service interface {
	// AuthURL returns the authorization URL for the code flow, carrying the
	// given single-use state token.
	AuthURL(state string) string

	// Exchange trades an authorization code for an initial token grant.
	Exchange(ctx context.Context, code string) (*TokenGrant, error)

	// Refresh trades a refresh token for a fresh token grant. The returned
	// grant carries the rotated refresh token when the provider rotates it,
	// otherwise the one passed in.
	Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error)

	// Me retrieves the profile of the account the token belongs to.
	Me(ctx context.Context, accessToken string) (*Profile, error)

	// Playlist retrieves a playlist by ID.
	Playlist(ctx context.Context, accessToken, playlistID string) (*Playlist, error)

	// Track retrieves a track by ID.
	Track(ctx context.Context, accessToken, trackID string) (*Track, error)

	// AddTrack inserts a track URI into a playlist at the given position
	// within the owner's catalog.
	AddTrack(ctx context.Context, accessToken, ownerID, playlistID, trackURI string, position int) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TokenGrant is the outcome of a code exchange or token refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // unix seconds
}

// Profile represents the streaming-service account tied to a credential.
type Profile struct {
	ID          string
	DisplayName string
}

// Playlist represents a playlist as resolved by the service.
type Playlist struct {
	ID      string
	Name    string
	OwnerID string
	Public  bool
}

// Track represents a single track.
type Track struct {
	ID     string
	Name   string
	Artist string
	URI    string
}
