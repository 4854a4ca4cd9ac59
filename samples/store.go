// CLAUDE:SUMMARY Append-only SQLite sample store: Append, History, AllHistory, Latest, DeleteProject.
// Package samples persists writing-progress measurements in SQLite.
//
// The store is append-only: there is no update or upsert operation. Every
// extraction attempt produces exactly one new row. The database is opened in
// WAL mode (see dbopen), so the dashboard process can read while the cron
// extraction process appends without either observing a torn row.
package samples

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// timeFormat is RFC 3339 UTC with fixed-width nanoseconds. The fixed width
// keeps lexicographic and chronological order identical in SQL.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// Store wraps the metrics database for sample operations.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Append inserts one sample. Timestamps are normalised to UTC; a zero
// timestamp defaults to now.
func (s *Store) Append(ctx context.Context, sm Sample) error {
	ts := sm.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO samples (project_id, timestamp, word_count, page_count, revision_id)
		VALUES (?, ?, ?, ?, ?)`,
		sm.ProjectID, ts.UTC().Format(timeFormat), sm.WordCount, sm.PageCount, sm.RevisionID,
	)
	if err != nil {
		return fmt.Errorf("samples: append: %w", err)
	}
	return nil
}

// History returns a project's samples ordered ascending by timestamp
// (insertion order within equal timestamps). Nil bounds are unbounded;
// bounds are inclusive.
func (s *Store) History(ctx context.Context, projectID string, from, to *time.Time) ([]Sample, error) {
	q := `SELECT project_id, timestamp, word_count, page_count, revision_id
		FROM samples WHERE project_id = ?`
	args := []any{projectID}
	q, args = appendRange(q, args, from, to)
	q += ` ORDER BY timestamp, id`

	return s.query(ctx, q, args)
}

// AllHistory returns samples across all projects ordered ascending by
// timestamp. Nil bounds are unbounded; bounds are inclusive.
func (s *Store) AllHistory(ctx context.Context, from, to *time.Time) ([]Sample, error) {
	q := `SELECT project_id, timestamp, word_count, page_count, revision_id
		FROM samples WHERE 1=1`
	var args []any
	q, args = appendRange(q, args, from, to)
	q += ` ORDER BY timestamp, id`

	return s.query(ctx, q, args)
}

// Latest returns the most recent sample for a project, or nil with no error
// when the project has no history.
func (s *Store) Latest(ctx context.Context, projectID string) (*Sample, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT project_id, timestamp, word_count, page_count, revision_id
		FROM samples WHERE project_id = ?
		ORDER BY timestamp DESC, id DESC LIMIT 1`, projectID)

	sm, err := scanSample(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("samples: latest: %w", err)
	}
	return sm, nil
}

// CountSamples returns the number of samples recorded for a project.
func (s *Store) CountSamples(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE project_id = ?`, projectID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("samples: count: %w", err)
	}
	return n, nil
}

// DeleteProject removes a project's entire history. This is the only way
// samples are ever deleted.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM samples WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("samples: delete project: %w", err)
	}
	return nil
}

func appendRange(q string, args []any, from, to *time.Time) (string, []any) {
	if from != nil {
		q += ` AND timestamp >= ?`
		args = append(args, from.UTC().Format(timeFormat))
	}
	if to != nil {
		q += ` AND timestamp <= ?`
		args = append(args, to.UTC().Format(timeFormat))
	}
	return q, args
}

func (s *Store) query(ctx context.Context, q string, args []any) ([]Sample, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("samples: query: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		sm, err := scanSample(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("samples: %w", err)
		}
		out = append(out, *sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("samples: rows: %w", err)
	}
	return out, nil
}

func scanSample(scan func(...any) error) (*Sample, error) {
	var sm Sample
	var ts string
	if err := scan(&sm.ProjectID, &ts, &sm.WordCount, &sm.PageCount, &sm.RevisionID); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("scan sample timestamp %q: %w", ts, err)
	}
	sm.Timestamp = parsed
	return &sm, nil
}
