package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OrganizedRecord is a persisted, immutable fact that a file was placed in
// the library. Records are inserted and deleted, never updated; a
// re-organize writes a fresh record.
type OrganizedRecord struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Year        int       `json:"year"`
	Season      int       `json:"season"`
	Episode     int       `json:"episode"`
	Resolution  string    `json:"resolution"`
	OrganizedBy int64     `json:"organized_by"`
	Method      string    `json:"method"`
	CreatedAt   time.Time `json:"created_at"`
}

const organizedColumns = `id, path, title, category, year, season, episode, resolution, organized_by, method, created_at`

// InsertOrganized persists a placement record, filling in ID and CreatedAt.
func (s *Store) InsertOrganized(ctx context.Context, rec *OrganizedRecord) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	rec.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO organized (path, title, category, year, season, episode, resolution, organized_by, method, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Path,
		rec.Title,
		rec.Category,
		nullableInt(rec.Year),
		nullableInt(rec.Season),
		nullableInt(rec.Episode),
		nullableString(rec.Resolution),
		rec.OrganizedBy,
		rec.Method,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert organized record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// IsOrganized reports whether a placement record exists for the given base
// filename. LIKE wildcards in the name are escaped so the lookup matches the
// filename literally.
func (s *Store) IsOrganized(ctx context.Context, filename string) (bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM organized WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		filename,
		"%/"+escapeLike(filename),
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("query organized by filename: %w", err)
	}
	return count > 0, nil
}

// ListOrganized returns a page of placement records ordered newest first,
// along with the total record count.
func (s *Store) ListOrganized(ctx context.Context, limit, offset int) ([]*OrganizedRecord, int, error) {
	if limit <= 0 {
		limit = 10
	}
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM organized`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count organized records: %w", err)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+organizedColumns+` FROM organized ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query organized records: %w", err)
	}
	defer rows.Close()

	var records []*OrganizedRecord
	for rows.Next() {
		rec, err := scanOrganized(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// LastManualEpisode returns the most recent manually placed episodic record,
// or nil when none exists. Used as the bulk propagation reference.
func (s *Store) LastManualEpisode(ctx context.Context) (*OrganizedRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+organizedColumns+` FROM organized
         WHERE method = 'manual' AND season IS NOT NULL AND episode IS NOT NULL
         ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	rec, err := scanOrganized(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last manual episode: %w", err)
	}
	return rec, nil
}

// RemoveOrganized deletes a placement record by id.
func (s *Store) RemoveOrganized(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM organized WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove organized record: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganized(row rowScanner) (*OrganizedRecord, error) {
	var (
		rec        OrganizedRecord
		year       sql.NullInt64
		season     sql.NullInt64
		episode    sql.NullInt64
		resolution sql.NullString
		createdAt  string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Path,
		&rec.Title,
		&rec.Category,
		&year,
		&season,
		&episode,
		&resolution,
		&rec.OrganizedBy,
		&rec.Method,
		&createdAt,
	); err != nil {
		return nil, err
	}
	rec.Year = int(year.Int64)
	rec.Season = int(season.Int64)
	rec.Episode = int(episode.Int64)
	rec.Resolution = resolution.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = ts
	}
	return &rec, nil
}
