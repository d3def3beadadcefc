// package repositories provides the persistence layer for forward history.
//
// The history is an append-only log of tracks that reached a playlist,
// kept separately from the directory snapshot. It is best-effort by
// contract: callers treat a failed write as a logged warning, never as a
// failed forward.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ethurin/tracknest/internal/shared"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS forwards (
	id TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL,
	owner_user_id TEXT NOT NULL,
	playlist_id TEXT NOT NULL,
	track_id TEXT NOT NULL,
	forwarded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_forwards_channel ON forwards(channel_id);
`

// Forward is one recorded track forward.
type Forward struct {
	ID          string
	ChannelID   string
	OwnerUserID string
	PlaylistID  string
	TrackID     string
	ForwardedAt time.Time
}

// HistoryRepository persists forward records to SQLite.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a repository over the given database
// connection and ensures the schema exists.
func NewHistoryRepository(db *sql.DB) (*HistoryRepository, error) {
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// Record inserts a new forward with a generated ID and the current time.
func (r *HistoryRepository) Record(channelID, ownerUserID, playlistID, trackID string) error {
	query := `
		INSERT INTO forwards (id, channel_id, owner_user_id, playlist_id, track_id, forwarded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, shared.GenerateID(), channelID, ownerUserID, playlistID, trackID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert forward: %w", err)
	}

	return nil
}

// Recent retrieves the most recent forwards, newest first.
func (r *HistoryRepository) Recent(limit int) ([]Forward, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, channel_id, owner_user_id, playlist_id, track_id, forwarded_at
		FROM forwards
		ORDER BY forwarded_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forwards: %w", err)
	}
	defer rows.Close()

	var forwards []Forward
	for rows.Next() {
		var f Forward
		if err := rows.Scan(&f.ID, &f.ChannelID, &f.OwnerUserID, &f.PlaylistID, &f.TrackID, &f.ForwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forward: %w", err)
		}
		forwards = append(forwards, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return forwards, nil
}

// CountByChannel returns the number of forwards recorded for a channel.
func (r *HistoryRepository) CountByChannel(channelID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM forwards WHERE channel_id = ?`, channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count forwards: %w", err)
	}
	return count, nil
}
