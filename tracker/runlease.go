// CLAUDE:SUMMARY Cross-process run lease in SQLite: one row, expiry-based takeover.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"
)

// leaseSchema holds the single-row lease table. One named row, N processes:
// whoever writes its holder into a non-expired row owns the run. An expired
// row can be taken over, so a crashed holder never blocks updates forever.
const leaseSchema = `
CREATE TABLE IF NOT EXISTS run_lease (
	name       TEXT PRIMARY KEY,
	holder     TEXT NOT NULL DEFAULT '',
	expires_at INTEGER NOT NULL DEFAULT 0  -- milliseconds since epoch
);
`

// Lease is a coarse cross-process mutex for the update cycle, shared through
// the samples database. The daemon and the cron binary both take it before
// running, so concurrent triggers collapse to one run.
type Lease struct {
	db     *sql.DB
	name   string
	holder string
	ttl    time.Duration
}

// NewLease creates a lease handle. ttl bounds how long a crashed holder
// blocks the next run; it should comfortably exceed one full update cycle.
func NewLease(db *sql.DB, name string, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	host, _ := os.Hostname()
	return &Lease{
		db:     db,
		name:   name,
		holder: fmt.Sprintf("%s-%d", host, os.Getpid()),
		ttl:    ttl,
	}
}

// EnsureTable creates the run_lease table if it doesn't exist.
func (l *Lease) EnsureTable(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, leaseSchema)
	return err
}

// TryAcquire attempts to take the lease. Returns false when another live
// holder has it. Re-acquiring a lease this process already holds succeeds
// and extends the expiry.
func (l *Lease) TryAcquire(ctx context.Context) (bool, error) {
	now := time.Now().UnixMilli()
	expires := now + l.ttl.Milliseconds()

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO run_lease (name, holder, expires_at) VALUES (?,?,?)
		ON CONFLICT(name) DO UPDATE SET
			holder = excluded.holder,
			expires_at = excluded.expires_at
		WHERE run_lease.expires_at <= ? OR run_lease.holder = excluded.holder`,
		l.name, l.holder, expires, now,
	)
	if err != nil {
		return false, fmt.Errorf("tracker: acquire lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("tracker: acquire lease: %w", err)
	}
	return n > 0, nil
}

// Renew pushes the expiry forward for a lease this process holds (heartbeat
// pattern for cycles that outlive the ttl).
func (l *Lease) Renew(ctx context.Context) error {
	expires := time.Now().Add(l.ttl).UnixMilli()
	_, err := l.db.ExecContext(ctx,
		`UPDATE run_lease SET expires_at = ? WHERE name = ? AND holder = ?`,
		expires, l.name, l.holder,
	)
	return err
}

// Release expires the lease immediately if this process still holds it.
// Releasing a lease taken over by someone else is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE run_lease SET expires_at = 0 WHERE name = ? AND holder = ?`,
		l.name, l.holder,
	)
	return err
}
