package samples

import "database/sql"

// Schema is the sample store schema. Timestamps are fixed-width RFC 3339 UTC
// text so that ORDER BY timestamp is chronological; the autoincrement id
// breaks ties between same-instant samples in insertion order.
const Schema = `
CREATE TABLE IF NOT EXISTS samples (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id  TEXT NOT NULL,
    timestamp   TEXT NOT NULL,
    word_count  INTEGER,
    page_count  INTEGER,
    revision_id TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_samples_project_ts ON samples(project_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples(timestamp);
`

// ApplySchema creates the samples table and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
