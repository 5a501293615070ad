package library

import (
	"fmt"
	"time"
)

func addGroup(q querier, g *Group) error {
	now := time.Now()
	result, err := q.Exec(`
		INSERT INTO groups (parent_group_id, name, sort_name, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ParentGroupID, g.Name, g.SortName, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	g.ID = id
	g.AddedAt = now
	g.UpdatedAt = now
	return nil
}

// AddGroup inserts a new group. Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddGroup(g *Group) error { return addGroup(s.db, g) }

// AddGroup inserts a new group within a transaction.
func (t *Tx) AddGroup(g *Group) error { return addGroup(t.tx, g) }

func getGroup(q querier, id int64) (*Group, error) {
	g := &Group{}
	err := q.QueryRow(`
		SELECT id, parent_group_id, name, sort_name, added_at, updated_at
		FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.ParentGroupID, &g.Name, &g.SortName, &g.AddedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get group %d: %w", id, mapSQLiteError(err))
	}
	return g, nil
}

// GetGroup retrieves a group by ID. Returns ErrNotFound if absent.
func (s *Store) GetGroup(id int64) (*Group, error) { return getGroup(s.db, id) }

// GetGroup retrieves a group by ID within a transaction.
func (t *Tx) GetGroup(id int64) (*Group, error) { return getGroup(t.tx, id) }

// ListGroups returns all groups ordered by ID.
func (s *Store) ListGroups() ([]*Group, error) {
	rows, err := s.db.Query(`
		SELECT id, parent_group_id, name, sort_name, added_at, updated_at
		FROM groups ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Group
	for rows.Next() {
		g := &Group{}
		if err := rows.Scan(&g.ID, &g.ParentGroupID, &g.Name, &g.SortName, &g.AddedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		results = append(results, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return results, nil
}

func updateGroup(q querier, g *Group) error {
	now := time.Now()
	result, err := q.Exec(`
		UPDATE groups SET parent_group_id = ?, name = ?, sort_name = ?, updated_at = ?
		WHERE id = ?`,
		g.ParentGroupID, g.Name, g.SortName, now, g.ID,
	)
	if err != nil {
		return fmt.Errorf("update group %d: %w", g.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update group %d: %w", g.ID, ErrNotFound)
	}
	g.UpdatedAt = now
	return nil
}

// UpdateGroup updates an existing group. Returns ErrNotFound if absent.
func (s *Store) UpdateGroup(g *Group) error { return updateGroup(s.db, g) }

// UpdateGroup updates an existing group within a transaction.
func (t *Tx) UpdateGroup(g *Group) error { return updateGroup(t.tx, g) }

// DeleteGroup removes a group by ID. Idempotent: no error when the
// group does not exist. Owned series keep a dangling group reference
// on purpose; the hierarchy resolver tolerates and logs it.
func (s *Store) DeleteGroup(id int64) error {
	_, err := s.db.Exec("DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
