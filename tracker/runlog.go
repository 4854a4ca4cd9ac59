// CLAUDE:SUMMARY Per-project run log: best-effort inserts, recent query, retention cleanup.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// runLogSchema records one row per project per update cycle.
const runLogSchema = `
CREATE TABLE IF NOT EXISTS run_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	project_id TEXT NOT NULL,
	success    INTEGER NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL  -- seconds since epoch
);
CREATE INDEX IF NOT EXISTS idx_run_log_created ON run_log (created_at);
`

// RunLog writes per-project outcomes of update cycles. Inserts are
// best-effort: errors are logged via slog but never propagate, so a failing
// log write cannot fail the update itself.
type RunLog struct {
	db *sql.DB
}

// NewRunLog creates a run log backed by the given database.
func NewRunLog(db *sql.DB) *RunLog {
	return &RunLog{db: db}
}

// EnsureTable creates the run_log table if it doesn't exist.
func (l *RunLog) EnsureTable(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, runLogSchema)
	return err
}

// Record writes one project outcome. Never returns an error.
func (l *RunLog) Record(ctx context.Context, runID string, st ProjectStatus) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_log (run_id, project_id, success, message, created_at)
		VALUES (?,?,?,?,?)`,
		runID, st.ProjectID, st.Success, st.Message, st.Timestamp.Unix(),
	)
	if err != nil {
		slog.Error("tracker: run log write failed", "error", err, "project", st.ProjectID)
	}
}

// Recent returns the newest entries, most recent first.
func (l *RunLog) Recent(ctx context.Context, limit int) ([]ProjectStatus, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT run_id, project_id, success, message, created_at
		FROM run_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("tracker: run log query: %w", err)
	}
	defer rows.Close()

	var out []ProjectStatus
	for rows.Next() {
		var st ProjectStatus
		var runID string
		var created int64
		if err := rows.Scan(&runID, &st.ProjectID, &st.Success, &st.Message, &created); err != nil {
			return nil, fmt.Errorf("tracker: run log scan: %w", err)
		}
		st.Timestamp = time.Unix(created, 0).UTC()
		out = append(out, st)
	}
	return out, rows.Err()
}

// Cleanup deletes entries older than the retention window. Zero or negative
// days disables cleanup.
func (l *RunLog) Cleanup(ctx context.Context, days int) error {
	if days <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(days)*86400
	if _, err := l.db.ExecContext(ctx, `DELETE FROM run_log WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("tracker: run log cleanup: %w", err)
	}
	return nil
}
