package store

import (
	"context"
	"fmt"
)

// AddUser records a requester id on the allow-list. Adding an existing id is
// a no-op.
func (s *Store) AddUser(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("add user: %w", err)
	}
	return nil
}

// IsKnownUser reports whether the requester id is on the allow-list.
func (s *Store) IsKnownUser(ctx context.Context, id int64) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE id = ?`, id)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return count > 0, nil
}

// ListUsers returns every known requester id.
func (s *Store) ListUsers(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
