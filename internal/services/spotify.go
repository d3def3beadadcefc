// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	URI        string          `json:"uri"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       owner  `json:"owner"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

// SpotifyService implements the [Service] interface for Spotify API interactions.
//
// Uses [oauth2] for the authorization-code flow. Tokens are held by the
// caller and passed per request, one linked account per chat user.
type SpotifyService struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-modify-public",
			"playlist-modify-private",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// AuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) AuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for an initial token grant.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*TokenGrant, error) {
	token, err := s.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return grantFromToken(token, ""), nil
}

// Refresh exchanges the stored refresh token for a new access token and expiry.
func (s *SpotifyService) Refresh(ctx context.Context, refreshToken string) (*TokenGrant, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	src := s.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return grantFromToken(token, refreshToken), nil
}

// grantFromToken converts an [oauth2.Token] to a TokenGrant, falling back to
// the prior refresh token when the provider did not rotate it.
func grantFromToken(token *oauth2.Token, prior string) *TokenGrant {
	grant := &TokenGrant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
	}
	if grant.RefreshToken == "" {
		grant.RefreshToken = prior
	}
	return grant
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, accessToken, method, endpoint string, body, result interface{}) error {
	if accessToken == "" {
		return fmt.Errorf("missing access token")
	}

	apiURL := spotifyBaseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Me retrieves the profile of the account the given token belongs to.
func (s *SpotifyService) Me(ctx context.Context, accessToken string) (*Profile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, accessToken, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}
	return &Profile{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// Playlist retrieves a playlist by ID.
func (s *SpotifyService) Playlist(ctx context.Context, accessToken, playlistID string) (*Playlist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)
	if err := s.doRequest(ctx, accessToken, "GET", endpoint, nil, &playlist); err != nil {
		return nil, err
	}

	return &Playlist{
		ID:      playlist.ID,
		Name:    playlist.Name,
		OwnerID: playlist.Owner.ID,
		Public:  playlist.Public,
	}, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, accessToken, trackID string) (*Track, error) {
	var track SpotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, accessToken, "GET", endpoint, nil, &track); err != nil {
		return nil, err
	}

	result := &Track{ID: track.ID, Name: track.Name, URI: track.URI}
	if len(track.Artists) > 0 {
		result.Artist = track.Artists[0].Name
	}
	return result, nil
}

// AddTrack inserts a track URI into a playlist in the owner's catalog at the given position.
func (s *SpotifyService) AddTrack(ctx context.Context, accessToken, ownerID, playlistID, trackURI string, position int) error {
	endpoint := fmt.Sprintf("/users/%s/playlists/%s/tracks", ownerID, playlistID)
	body := map[string]any{
		"uris":     []string{trackURI},
		"position": position,
	}

	var response struct {
		SnapshotID string `json:"snapshot_id"`
	}
	return s.doRequest(ctx, accessToken, "POST", endpoint, body, &response)
}
