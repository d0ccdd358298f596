package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// UpsertStats serializes the payload and stores it under the given scope
// ("global" or "user_<id>"), replacing any existing row.
func (s *Store) UpsertStats(ctx context.Context, scope string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal stats payload: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO stats (scope, payload, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(scope) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		scope,
		string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}

// LoadStats unmarshals the payload stored under scope into out. Returns
// false when no row exists.
func (s *Store) LoadStats(ctx context.Context, scope string, out any) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM stats WHERE scope = ?`, scope)
	var payload string
	err := row.Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query stats: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("unmarshal stats payload: %w", err)
	}
	return true, nil
}
