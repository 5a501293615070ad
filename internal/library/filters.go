package library

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aniarr/aniarr/internal/filter"
)

func marshalFilterJSON(d *filter.Definition) (conditions, sortOrder string, err error) {
	conds := d.Conditions
	if conds == nil {
		conds = []filter.Condition{}
	}
	cb, err := json.Marshal(conds)
	if err != nil {
		return "", "", fmt.Errorf("marshal conditions: %w", err)
	}
	order := d.SortOrder
	if order == nil {
		order = []filter.SortClause{}
	}
	sb, err := json.Marshal(order)
	if err != nil {
		return "", "", fmt.Errorf("marshal sort order: %w", err)
	}
	return string(cb), string(sb), nil
}

func scanFilter(row interface{ Scan(...any) error }) (*filter.Definition, error) {
	d := &filter.Definition{}
	var conditions, sortOrder string
	err := row.Scan(&d.ID, &d.ParentID, &d.Name, &d.TargetLevel, &d.BasePolicy,
		&conditions, &sortOrder, &d.Locked, &d.Hidden, &d.StructuralOnly,
		&d.AddedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(conditions), &d.Conditions); err != nil {
		return nil, fmt.Errorf("unmarshal conditions: %w", err)
	}
	if err := json.Unmarshal([]byte(sortOrder), &d.SortOrder); err != nil {
		return nil, fmt.Errorf("unmarshal sort order: %w", err)
	}
	return d, nil
}

const filterColumns = `id, parent_id, name, target_level, base_policy,
		conditions, sort_order, locked, hidden, structural_only, added_at, updated_at`

// AddFilter inserts a new filter definition. The definition must pass
// Validate; structural misconfiguration is rejected here, before the
// evaluator can ever see it.
func (s *Store) AddFilter(d *filter.Definition) error {
	if errs := d.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid filter %q: %s: %w", d.Name, errs[0], ErrConstraint)
	}
	conditions, sortOrder, err := marshalFilterJSON(d)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO filters (parent_id, name, target_level, base_policy, conditions, sort_order, locked, hidden, structural_only, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ParentID, d.Name, d.TargetLevel, d.BasePolicy, conditions, sortOrder,
		d.Locked, d.Hidden, d.StructuralOnly, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert filter: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	d.ID = id
	d.AddedAt = now
	d.UpdatedAt = now
	return nil
}

// GetFilter retrieves a filter definition by ID. Returns ErrNotFound
// if absent.
func (s *Store) GetFilter(id int64) (*filter.Definition, error) {
	row := s.db.QueryRow("SELECT "+filterColumns+" FROM filters WHERE id = ?", id)
	d, err := scanFilter(row)
	if err != nil {
		return nil, fmt.Errorf("get filter %d: %w", id, mapSQLiteError(err))
	}
	return d, nil
}

// ListFilters returns every stored filter definition ordered by ID.
func (s *Store) ListFilters() ([]*filter.Definition, error) {
	rows, err := s.db.Query("SELECT " + filterColumns + " FROM filters ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*filter.Definition
	for rows.Next() {
		d, err := scanFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		results = append(results, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filters: %w", err)
	}
	return results, nil
}

// UpdateFilter updates an existing filter definition. Locked filters
// may still be updated here; locking is a UI concern, not a store one.
func (s *Store) UpdateFilter(d *filter.Definition) error {
	if errs := d.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid filter %q: %s: %w", d.Name, errs[0], ErrConstraint)
	}
	conditions, sortOrder, err := marshalFilterJSON(d)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE filters SET parent_id = ?, name = ?, target_level = ?, base_policy = ?,
			conditions = ?, sort_order = ?, locked = ?, hidden = ?, structural_only = ?, updated_at = ?
		WHERE id = ?`,
		d.ParentID, d.Name, d.TargetLevel, d.BasePolicy, conditions, sortOrder,
		d.Locked, d.Hidden, d.StructuralOnly, now, d.ID,
	)
	if err != nil {
		return fmt.Errorf("update filter %d: %w", d.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update filter %d: %w", d.ID, ErrNotFound)
	}
	d.UpdatedAt = now
	return nil
}

// DeleteFilter removes a filter definition by ID. Idempotent.
// Membership rows for the filter are removed by cascade.
func (s *Store) DeleteFilter(id int64) error {
	_, err := s.db.Exec("DELETE FROM filters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete filter %d: %w", id, mapSQLiteError(err))
	}
	return nil
}
