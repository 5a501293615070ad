package membership

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aniarr/aniarr/internal/filter"
)

// SchemaVersion is stamped into every persisted membership blob. Bump
// it whenever the blob layout or the evaluation semantics change; a
// mismatch on load forces a rebuild instead of trusting stale data.
const SchemaVersion = 1

// SnapshotStore persists membership snapshots to SQLite, one versioned
// blob per filter and level.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore creates a membership snapshot store.
func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

type membershipBlob struct {
	SchemaVersion int               `json:"schema_version"`
	Users         map[int64][]int64 `json:"users"`
}

// Save upserts the membership blob for a filter at a level.
func (s *SnapshotStore) Save(ctx context.Context, filterID int64, level filter.TargetLevel, members map[int64][]int64) error {
	if members == nil {
		members = map[int64][]int64{}
	}
	payload, err := json.Marshal(membershipBlob{SchemaVersion: SchemaVersion, Users: members})
	if err != nil {
		return fmt.Errorf("marshal membership: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO filter_membership (filter_id, level, schema_version, payload, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filter_id, level) DO UPDATE SET schema_version = excluded.schema_version,
			payload = excluded.payload, updated_at = excluded.updated_at`,
		filterID, level, SchemaVersion, string(payload), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("save membership for filter %d: %w", filterID, err)
	}
	return nil
}

// Load reads the membership blob for a filter at a level. Returns
// ErrNoSnapshot when nothing was saved and ErrStale when the blob was
// written by a different schema version.
func (s *SnapshotStore) Load(ctx context.Context, filterID int64, level filter.TargetLevel) (map[int64][]int64, error) {
	var (
		version int
		payload string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT schema_version, payload FROM filter_membership
		WHERE filter_id = ? AND level = ?`, filterID, level,
	).Scan(&version, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("filter %d level %s: %w", filterID, level, ErrNoSnapshot)
		}
		return nil, fmt.Errorf("load membership for filter %d: %w", filterID, err)
	}
	if version != SchemaVersion {
		return nil, fmt.Errorf("filter %d level %s: version %d, want %d: %w",
			filterID, level, version, SchemaVersion, ErrStale)
	}
	var blob membershipBlob
	if err := json.Unmarshal([]byte(payload), &blob); err != nil {
		return nil, fmt.Errorf("unmarshal membership for filter %d: %w", filterID, err)
	}
	if blob.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("filter %d level %s: payload version %d, want %d: %w",
			filterID, level, blob.SchemaVersion, SchemaVersion, ErrStale)
	}
	if blob.Users == nil {
		blob.Users = map[int64][]int64{}
	}
	return blob.Users, nil
}

// Delete removes the persisted blobs for a filter, used when the
// filter itself is deleted.
func (s *SnapshotStore) Delete(ctx context.Context, filterID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM filter_membership WHERE filter_id = ?", filterID)
	if err != nil {
		return fmt.Errorf("delete membership for filter %d: %w", filterID, err)
	}
	return nil
}
