package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethurin/tracknest/internal/models"
	"github.com/ethurin/tracknest/internal/shared"
)

// loadSnapshot reads the snapshot file at path. A missing or unreadable file
// yields an empty snapshot; a present but undecodable one is fatal, since
// silently starting empty over corrupt data would hide data loss.
func loadSnapshot(path string) (*models.Snapshot, error) {
	if path == "" {
		return models.NewSnapshot(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewSnapshot(), nil
	}

	var state models.Snapshot
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptSnapshot, path, err)
	}

	// Either map may be absent from an older snapshot.
	if state.Credentials == nil {
		state.Credentials = make(map[string]models.CredentialRecord)
	}
	if state.Subscriptions == nil {
		state.Subscriptions = make(map[string]models.SubscriptionRecord)
	}

	return &state, nil
}

// saveSnapshot serializes the full directory state as indented JSON and
// atomically replaces the prior snapshot via a temp-file rename.
func saveSnapshot(path string, state *models.Snapshot) error {
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	return nil
}
