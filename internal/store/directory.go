// package store implements the account and subscription directory, the
// single shared state behind every workflow.
//
// The directory guards the credential map and the subscription map with one
// coarse lock. Callers run whole logical operations inside [Directory.Update]
// or [Directory.View]; a mutation and its triggering snapshot write happen in
// the same critical section so a concurrent reader can never observe or
// persist a half-updated view.
package store

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ethurin/tracknest/internal/models"
	"github.com/ethurin/tracknest/internal/shared"
)

// Directory is the aggregate root holding credentials and subscriptions.
type Directory struct {
	mu     sync.Mutex
	state  *models.Snapshot
	path   string
	logger *log.Logger
}

// Open loads the directory from the snapshot at path. A missing file yields
// an empty directory; a file that exists but cannot be decoded is a fatal
// startup condition and returns [shared.ErrCorruptSnapshot].
//
// An empty path keeps the directory memory-only, which tests rely on.
func Open(path string, logger *log.Logger) (*Directory, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	state, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}

	return &Directory{state: state, path: path, logger: logger}, nil
}

// Tx is a view of the directory state, valid only inside the closure it was
// handed to. Mutating methods mark the transaction dirty, which triggers a
// snapshot write when the closure finishes.
type Tx struct {
	state *models.Snapshot
	dirty bool
}

// Update runs fn while holding the directory lock and persists the snapshot
// if fn mutated anything.
//
// The snapshot is written even when fn returns an error, since fn may have
// applied a mutation (a credential refresh) before failing. A write failure
// never rolls back the in-memory state: the error is logged, and returned
// as [shared.ErrPersistence] only when fn itself succeeded.
func (d *Directory) Update(fn func(tx *Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx := &Tx{state: d.state}
	opErr := fn(tx)

	if tx.dirty {
		if err := saveSnapshot(d.path, d.state); err != nil {
			d.logger.Errorf("snapshot write failed: %v", err)
			if opErr == nil {
				return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
			}
		}
	}

	return opErr
}

// View runs fn while holding the directory lock without persisting afterward.
func (d *Directory) View(fn func(tx *Tx) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(&Tx{state: d.state})
}

// Credential returns the credential record for the given chat user.
func (t *Tx) Credential(userID string) (models.CredentialRecord, bool) {
	rec, ok := t.state.Credentials[userID]
	return rec, ok
}

// PutCredential inserts or overwrites the credential keyed by its UserID.
func (t *Tx) PutCredential(rec models.CredentialRecord) {
	t.state.Credentials[rec.UserID] = rec
	t.dirty = true
}

// RemoveCredential deletes the credential for the given user, reporting
// whether one existed.
func (t *Tx) RemoveCredential(userID string) bool {
	if _, ok := t.state.Credentials[userID]; !ok {
		return false
	}
	delete(t.state.Credentials, userID)
	t.dirty = true
	return true
}

// Subscription returns the subscription record for the given channel.
func (t *Tx) Subscription(channelID string) (models.SubscriptionRecord, bool) {
	rec, ok := t.state.Subscriptions[channelID]
	return rec, ok
}

// PutSubscription inserts or overwrites the subscription keyed by its
// ChannelID. A channel holds at most one subscription.
func (t *Tx) PutSubscription(rec models.SubscriptionRecord) {
	t.state.Subscriptions[rec.ChannelID] = rec
	t.dirty = true
}

// RemoveSubscription deletes the subscription for the given channel,
// reporting whether one existed.
func (t *Tx) RemoveSubscription(channelID string) bool {
	if _, ok := t.state.Subscriptions[channelID]; !ok {
		return false
	}
	delete(t.state.Subscriptions, channelID)
	t.dirty = true
	return true
}

// SubscriptionsByOwner returns every subscription owned by the given user.
func (t *Tx) SubscriptionsByOwner(userID string) []models.SubscriptionRecord {
	var subs []models.SubscriptionRecord
	for _, rec := range t.state.Subscriptions {
		if rec.OwnerUserID == userID {
			subs = append(subs, rec)
		}
	}
	return subs
}

// RemoveSubscriptionsByOwner deletes every subscription owned by the given
// user and returns the count removed. Zero is a valid outcome.
func (t *Tx) RemoveSubscriptionsByOwner(userID string) int {
	removed := 0
	for channelID, rec := range t.state.Subscriptions {
		if rec.OwnerUserID == userID {
			delete(t.state.Subscriptions, channelID)
			removed++
		}
	}
	if removed > 0 {
		t.dirty = true
	}
	return removed
}

// Counts returns the number of credentials and subscriptions held.
func (t *Tx) Counts() (credentials, subscriptions int) {
	return len(t.state.Credentials), len(t.state.Subscriptions)
}
