package store

import (
	"context"
	"fmt"
	"time"
)

// ErrorRecord captures the context of a processing failure.
type ErrorRecord struct {
	ID        int64     `json:"id"`
	File      string    `json:"file"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertError persists a processing-failure record.
func (s *Store) InsertError(ctx context.Context, file, stage, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO error_log (file, stage, message, created_at) VALUES (?, ?, ?, ?)`,
		file,
		stage,
		message,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert error record: %w", err)
	}
	return nil
}

// ListErrors returns the most recent failure records, newest first.
func (s *Store) ListErrors(ctx context.Context, limit int) ([]*ErrorRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, file, stage, message, created_at FROM error_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query error records: %w", err)
	}
	defer rows.Close()

	var records []*ErrorRecord
	for rows.Next() {
		var (
			rec       ErrorRecord
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.File, &rec.Stage, &rec.Message, &createdAt); err != nil {
			return nil, err
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
