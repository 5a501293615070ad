package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aniarr/aniarr/internal/filter"
)

// The stats tables hold the opaque, versioned statistics snapshots the
// external stats job writes. The engine reads them through the
// SnapshotSource methods below; this package never computes stats.

func statsTable(level filter.TargetLevel) (table, column string, err error) {
	switch level {
	case filter.TargetSeries:
		return "series_stats", "series_id", nil
	case filter.TargetGroup:
		return "group_stats", "group_id", nil
	}
	return "", "", fmt.Errorf("unknown target level %q", level)
}

// PutSnapshot upserts an entity's statistics snapshot. The snapshot's
// Version must increase monotonically per entity; the caller (the
// stats job) owns sequencing.
func (s *Store) PutSnapshot(ctx context.Context, level filter.TargetLevel, snap *filter.Snapshot) error {
	table, column, err := statsTable(level)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (`+column+`, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(`+column+`) DO UPDATE SET version = excluded.version,
			payload = excluded.payload, updated_at = excluded.updated_at`,
		snap.EntityID, snap.Version, string(payload), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put %s snapshot %d: %w", level, snap.EntityID, mapSQLiteError(err))
	}
	return nil
}

// Snapshot loads an entity's statistics snapshot. Returns ErrNotFound
// when the stats job has never produced one; callers treat that as
// "matches nothing", not as a failure.
func (s *Store) Snapshot(ctx context.Context, level filter.TargetLevel, entityID int64) (*filter.Snapshot, error) {
	table, column, err := statsTable(level)
	if err != nil {
		return nil, err
	}
	var payload string
	err = s.db.QueryRowContext(ctx,
		"SELECT payload FROM "+table+" WHERE "+column+" = ?", entityID).Scan(&payload)
	if err != nil {
		return nil, fmt.Errorf("get %s snapshot %d: %w", level, entityID, mapSQLiteError(err))
	}
	snap := &filter.Snapshot{}
	if err := json.Unmarshal([]byte(payload), snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %d: %w", entityID, err)
	}
	return snap, nil
}

// EntityIDs lists every entity ID at the given level, snapshot or not.
// Rebuilds iterate this so entities without stats are still visited
// (and excluded, since they have no snapshot).
func (s *Store) EntityIDs(ctx context.Context, level filter.TargetLevel) ([]int64, error) {
	var query string
	switch level {
	case filter.TargetSeries:
		query = "SELECT id FROM series ORDER BY id"
	case filter.TargetGroup:
		query = "SELECT id FROM groups ORDER BY id"
	default:
		return nil, fmt.Errorf("unknown target level %q", level)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s ids: %w", level, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ChangedSnapshots returns snapshots whose version exceeds the cursor,
// oldest first, with the highest version seen. The stats watcher polls
// this to turn external recomputes into engine updates.
func (s *Store) ChangedSnapshots(ctx context.Context, level filter.TargetLevel, afterVersion int64) ([]*filter.Snapshot, int64, error) {
	table, column, err := statsTable(level)
	if err != nil {
		return nil, afterVersion, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+column+`, version, payload FROM `+table+`
		WHERE version > ? ORDER BY version ASC`, afterVersion)
	if err != nil {
		return nil, afterVersion, fmt.Errorf("query changed %s stats: %w", level, err)
	}
	defer func() { _ = rows.Close() }()

	var snaps []*filter.Snapshot
	maxVersion := afterVersion
	for rows.Next() {
		var (
			id, version int64
			payload     string
		)
		if err := rows.Scan(&id, &version, &payload); err != nil {
			return nil, afterVersion, fmt.Errorf("scan changed stats: %w", err)
		}
		snap := &filter.Snapshot{}
		if err := json.Unmarshal([]byte(payload), snap); err != nil {
			return nil, afterVersion, fmt.Errorf("unmarshal snapshot %d: %w", id, err)
		}
		if version > maxVersion {
			maxVersion = version
		}
		snaps = append(snaps, snap)
	}
	return snaps, maxVersion, rows.Err()
}

// Graph implementation for the hierarchy resolver.

// GroupOfSeries returns the group owning a series, ok=false when the
// series is unknown or unassigned.
func (s *Store) GroupOfSeries(ctx context.Context, seriesID int64) (int64, bool, error) {
	var groupID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT group_id FROM series WHERE id = ?", seriesID).Scan(&groupID)
	if err != nil {
		if mapSQLiteError(err) == ErrNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("group of series %d: %w", seriesID, err)
	}
	if !groupID.Valid {
		return 0, false, nil
	}
	return groupID.Int64, true, nil
}

// ParentGroup returns a group's parent, ok=false at the root.
func (s *Store) ParentGroup(ctx context.Context, groupID int64) (int64, bool, error) {
	var parentID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT parent_group_id FROM groups WHERE id = ?", groupID).Scan(&parentID)
	if err != nil {
		if mapSQLiteError(err) == ErrNotFound {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("parent of group %d: %w", groupID, err)
	}
	if !parentID.Valid {
		return 0, false, nil
	}
	return parentID.Int64, true, nil
}

// GroupExists reports whether a group row is present.
func (s *Store) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&one)
	if err != nil {
		if mapSQLiteError(err) == ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("group exists %d: %w", groupID, err)
	}
	return true, nil
}

// ChildGroups lists a group's direct children.
func (s *Store) ChildGroups(ctx context.Context, groupID int64) ([]int64, error) {
	return s.idList(ctx, "SELECT id FROM groups WHERE parent_group_id = ? ORDER BY id", groupID)
}

// SeriesOfGroup lists the series directly owned by a group.
func (s *Store) SeriesOfGroup(ctx context.Context, groupID int64) ([]int64, error) {
	return s.idList(ctx, "SELECT id FROM series WHERE group_id = ? ORDER BY id", groupID)
}

func (s *Store) idList(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("id query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DisplayNames returns display names for the given entities, used
// only when materializing a sorted collection.
func (s *Store) DisplayNames(ctx context.Context, level filter.TargetLevel, ids []int64) (map[int64]string, error) {
	switch level {
	case filter.TargetSeries:
		return s.nameMap(ctx, "SELECT title FROM series WHERE id = ?", ids)
	case filter.TargetGroup:
		return s.nameMap(ctx, "SELECT name FROM groups WHERE id = ?", ids)
	}
	return nil, fmt.Errorf("unknown target level %q", level)
}

// SortNames returns sort names, falling back to the display name when
// no explicit sort name is stored.
func (s *Store) SortNames(ctx context.Context, level filter.TargetLevel, ids []int64) (map[int64]string, error) {
	switch level {
	case filter.TargetSeries:
		return s.nameMap(ctx, `
			SELECT CASE WHEN sort_title != '' THEN sort_title ELSE title END
			FROM series WHERE id = ?`, ids)
	case filter.TargetGroup:
		return s.nameMap(ctx, `
			SELECT CASE WHEN sort_name != '' THEN sort_name ELSE name END
			FROM groups WHERE id = ?`, ids)
	}
	return nil, fmt.Errorf("unknown target level %q", level)
}

func (s *Store) nameMap(ctx context.Context, query string, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	for _, id := range ids {
		var name string
		err := s.db.QueryRowContext(ctx, query, id).Scan(&name)
		if err != nil {
			if mapSQLiteError(err) == ErrNotFound {
				continue
			}
			return nil, fmt.Errorf("entity name %d: %w", id, err)
		}
		names[id] = name
	}
	return names, nil
}
