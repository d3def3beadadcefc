// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/ethurin/tracknest/internal/services"
)

// AddCall records one AddTrack invocation on a [FakeService].
type AddCall struct {
	OwnerID    string
	PlaylistID string
	TrackURI   string
	Position   int
}

// FakeService is a scripted test double for [services.Service].
//
// Zero-value fields mean "succeed with defaults"; set the corresponding Err
// field to script a failure. Call counters let tests assert how many
// upstream calls a workflow made.
type FakeService struct {
	mu sync.Mutex

	Grant        *services.TokenGrant // returned by Exchange
	RefreshGrant *services.TokenGrant // returned by Refresh
	ProfileID    string
	DisplayName  string
	Owner        string // playlist owner, defaults to ProfileID
	PlaylistID   string // resolved playlist id, defaults to the requested id

	ExchangeErr error
	RefreshErr  error
	MeErr       error
	PlaylistErr error
	TrackErr    error
	AddErr      error

	ExchangeCalls int
	RefreshCalls  int
	MeCalls       int
	PlaylistCalls int
	AddCalls      []AddCall
}

func (f *FakeService) Name() string { return "fake" }

func (f *FakeService) AuthURL(state string) string {
	return "https://accounts.example.test/authorize?state=" + state
}

func (f *FakeService) Exchange(ctx context.Context, code string) (*services.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ExchangeCalls++
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	if f.Grant != nil {
		return f.Grant, nil
	}
	return &services.TokenGrant{AccessToken: "access-" + code, RefreshToken: "refresh-" + code, ExpiresAt: 1<<62 - 1}, nil
}

func (f *FakeService) Refresh(ctx context.Context, refreshToken string) (*services.TokenGrant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefreshCalls++
	if f.RefreshErr != nil {
		return nil, f.RefreshErr
	}
	if f.RefreshGrant != nil {
		return f.RefreshGrant, nil
	}
	return &services.TokenGrant{AccessToken: "refreshed-access", RefreshToken: refreshToken, ExpiresAt: 1<<62 - 1}, nil
}

func (f *FakeService) Me(ctx context.Context, accessToken string) (*services.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MeCalls++
	if f.MeErr != nil {
		return nil, f.MeErr
	}
	return &services.Profile{ID: f.ProfileID, DisplayName: f.DisplayName}, nil
}

func (f *FakeService) Playlist(ctx context.Context, accessToken, playlistID string) (*services.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PlaylistCalls++
	if f.PlaylistErr != nil {
		return nil, f.PlaylistErr
	}

	id := f.PlaylistID
	if id == "" {
		id = playlistID
	}
	ownerID := f.Owner
	if ownerID == "" {
		ownerID = f.ProfileID
	}
	return &services.Playlist{ID: id, Name: "fake playlist", OwnerID: ownerID, Public: true}, nil
}

func (f *FakeService) Track(ctx context.Context, accessToken, trackID string) (*services.Track, error) {
	if f.TrackErr != nil {
		return nil, f.TrackErr
	}
	return &services.Track{ID: trackID, Name: "fake track", URI: "spotify:track:" + trackID}, nil
}

func (f *FakeService) AddTrack(ctx context.Context, accessToken, ownerID, playlistID, trackURI string, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls = append(f.AddCalls, AddCall{OwnerID: ownerID, PlaylistID: playlistID, TrackURI: trackURI, Position: position})
	return f.AddErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
