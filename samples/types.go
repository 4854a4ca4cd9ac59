// CLAUDE:SUMMARY Sample data type: one timestamped word/page measurement per extraction attempt.
package samples

import "time"

// Sample is one measurement of a project's document metrics. A sample is
// written for every extraction attempt — failed word or page extraction
// leaves the corresponding count nil, preserving the audit trail of when
// extraction was attempted rather than only when it succeeded.
type Sample struct {
	ProjectID  string    `json:"project_id"`
	Timestamp  time.Time `json:"timestamp"` // UTC
	WordCount  *int64    `json:"word_count"`
	PageCount  *int64    `json:"page_count"`
	RevisionID string    `json:"revision_id,omitempty"` // git commit hash, "" = unknown
}

// Int64 returns a pointer to v, for building optional sample fields.
func Int64(v int64) *int64 { return &v }
