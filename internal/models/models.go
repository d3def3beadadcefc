// package models defines the records held by the account and subscription directory
package models

import "time"

// ValiditySkew is the margin subtracted from a credential's lifetime when
// deciding whether it is still usable. A token about to expire mid-request
// is treated as already expired.
const ValiditySkew = 10 * time.Second

// CredentialRecord holds the OAuth token state for one linked account.
//
// A record exists only after a completed handshake; re-linking overwrites.
type CredentialRecord struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // unix seconds
}

// Valid reports whether the access token is usable at the given instant,
// accounting for [ValiditySkew].
func (c CredentialRecord) Valid(now time.Time) bool {
	return now.Add(ValiditySkew).Unix() < c.ExpiresAt
}

// SubscriptionRecord binds one chat channel to one playlist and the linked
// user whose credential authorizes forwards into it.
//
// TargetUserID is the streaming-service account that owns the playlist,
// captured at follow time. It is never re-derived afterwards.
type SubscriptionRecord struct {
	ChannelID    string `json:"channel_id"`
	OwnerUserID  string `json:"owner_user_id"`
	TargetUserID string `json:"target_user_id"`
	PlaylistID   string `json:"playlist_id"`
}

// Snapshot is the serialized shape of the directory: the credential map
// keyed by chat user id and the subscription map keyed by channel id.
type Snapshot struct {
	Credentials   map[string]CredentialRecord   `json:"credentials"`
	Subscriptions map[string]SubscriptionRecord `json:"subscriptions"`
}

// NewSnapshot returns an empty Snapshot with both maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Credentials:   make(map[string]CredentialRecord),
		Subscriptions: make(map[string]SubscriptionRecord),
	}
}
