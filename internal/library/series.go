package library

import (
	"fmt"
	"time"
)

func addSeries(q querier, sr *Series) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO series (group_id, anidb_id, title, sort_title, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sr.GroupID, sr.AniDBID, sr.Title, sr.SortTitle, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert series: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	sr.ID = id
	sr.AddedAt = now
	sr.UpdatedAt = now
	return nil
}

// AddSeries inserts a new series. Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddSeries(sr *Series) error { return addSeries(s.db, sr) }

// AddSeries inserts a new series within a transaction.
func (t *Tx) AddSeries(sr *Series) error { return addSeries(t.tx, sr) }

func getSeries(q querier, id int64) (*Series, error) {
	sr := &Series{}
	err := q.QueryRow(`
		SELECT id, group_id, anidb_id, title, sort_title, added_at, updated_at
		FROM series WHERE id = ?`, id,
	).Scan(&sr.ID, &sr.GroupID, &sr.AniDBID, &sr.Title, &sr.SortTitle, &sr.AddedAt, &sr.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get series %d: %w", id, mapSQLiteError(err))
	}
	return sr, nil
}

// GetSeries retrieves a series by ID. Returns ErrNotFound if absent.
func (s *Store) GetSeries(id int64) (*Series, error) { return getSeries(s.db, id) }

// GetSeries retrieves a series by ID within a transaction.
func (t *Tx) GetSeries(id int64) (*Series, error) { return getSeries(t.tx, id) }

// ListSeries returns all series ordered by ID.
func (s *Store) ListSeries() ([]*Series, error) {
	rows, err := s.db.Query(`
		SELECT id, group_id, anidb_id, title, sort_title, added_at, updated_at
		FROM series ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Series
	for rows.Next() {
		sr := &Series{}
		if err := rows.Scan(&sr.ID, &sr.GroupID, &sr.AniDBID, &sr.Title, &sr.SortTitle, &sr.AddedAt, &sr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		results = append(results, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return results, nil
}

func updateSeries(q querier, sr *Series) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE series SET group_id = ?, anidb_id = ?, title = ?, sort_title = ?, updated_at = ?
		WHERE id = ?`,
		sr.GroupID, sr.AniDBID, sr.Title, sr.SortTitle, now, sr.ID,
	)
	if err != nil {
		return fmt.Errorf("update series %d: %w", sr.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update series %d: %w", sr.ID, ErrNotFound)
	}
	sr.UpdatedAt = now
	return nil
}

// UpdateSeries updates an existing series. Returns ErrNotFound if absent.
func (s *Store) UpdateSeries(sr *Series) error { return updateSeries(s.db, sr) }

// UpdateSeries updates an existing series within a transaction.
func (t *Tx) UpdateSeries(sr *Series) error { return updateSeries(t.tx, sr) }

// DeleteSeries removes a series by ID. Idempotent.
func (s *Store) DeleteSeries(id int64) error {
	_, err := s.db.Exec("DELETE FROM series WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete series %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
