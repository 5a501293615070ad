package library

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal hidden tags: %w", err)
	}
	return string(b), nil
}

// AddUser inserts a new user. Sets ID, AddedAt, and UpdatedAt on the struct.
func (s *Store) AddUser(u *User) error {
	tags, err := marshalTags(u.HiddenTags)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := s.db.Exec(`
		INSERT INTO users (name, hidden_tags, is_admin, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Name, tags, u.IsAdmin, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	u.ID = id
	u.AddedAt = now
	u.UpdatedAt = now
	return nil
}

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	u := &User{}
	var tags string
	if err := row.Scan(&u.ID, &u.Name, &tags, &u.IsAdmin, &u.AddedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &u.HiddenTags); err != nil {
		return nil, fmt.Errorf("unmarshal hidden tags: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID. Returns ErrNotFound if absent.
func (s *Store) GetUser(id int64) (*User, error) {
	row := s.db.QueryRow(`
		SELECT id, name, hidden_tags, is_admin, added_at, updated_at
		FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapSQLiteError(err))
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func (s *Store) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT id, name, hidden_tags, is_admin, added_at, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		results = append(results, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return results, nil
}

// UpdateUser updates an existing user. Returns ErrNotFound if absent.
func (s *Store) UpdateUser(u *User) error {
	tags, err := marshalTags(u.HiddenTags)
	if err != nil {
		return err
	}
	now := time.Now()
	result, err := s.db.Exec(`
		UPDATE users SET name = ?, hidden_tags = ?, is_admin = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, tags, u.IsAdmin, now, u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update user %d: %w", u.ID, ErrNotFound)
	}
	u.UpdatedAt = now
	return nil
}

// DeleteUser removes a user by ID. Idempotent.
func (s *Store) DeleteUser(id int64) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, mapSQLiteError(err))
	}
	return nil
}

// ListUserIDs returns the IDs of all known users. Implements the
// engine's user source together with HiddenTags.
func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HiddenTags returns a user's hidden-category set. Unknown users have
// no hidden categories; user 0 is the system context and always empty.
func (s *Store) HiddenTags(ctx context.Context, userID int64) ([]string, error) {
	if userID == 0 {
		return nil, nil
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT hidden_tags FROM users WHERE id = ?", userID).Scan(&raw)
	if err != nil {
		if mapSQLiteError(err) == ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("hidden tags for user %d: %w", userID, err)
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal hidden tags: %w", err)
	}
	return tags, nil
}
