package sqlstore

import (
	"fmt"
	"time"
)

// Dialect captures what differs between SQL backends.
type Dialect struct {
	// Name labels the pool metrics and log lines.
	Name string
	// DriverName is the database/sql driver registered for the backend.
	DriverName string
	// upsert is a format string taking the table name; placeholders are
	// email then timestamp, with a second timestamp when bindTimestampTwice.
	upsert string
	// bindTimestampTwice repeats the timestamp for the update clause.
	bindTimestampTwice bool
}

// MySQL upserts through the UNIQUE key on email. The update clause binds the
// timestamp again since VALUES() in ON DUPLICATE KEY UPDATE is deprecated.
var MySQL = Dialect{
	Name:       "mysql",
	DriverName: "mysql",
	upsert: `
INSERT INTO %[1]s (email, visits, timestamp)
VALUES (?, 1, ?)
ON DUPLICATE KEY UPDATE
	visits = visits + 1,
	timestamp = ?`,
	bindTimestampTwice: true,
}

// SQLite upserts through the UNIQUE constraint on email.
var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	upsert: `
INSERT INTO %[1]s (email, visits, timestamp)
VALUES (?, 1, ?)
ON CONFLICT (email) DO UPDATE SET
	visits = %[1]s.visits + 1,
	timestamp = excluded.timestamp`,
}

func (d Dialect) upsertSQL(table string) string {
	return fmt.Sprintf(d.upsert, table)
}

func (d Dialect) upsertArgs(email string, now time.Time) []any {
	if d.bindTimestampTwice {
		return []any{email, now, now}
	}
	return []any{email, now}
}

func listSQL(table string) string {
	return fmt.Sprintf(`
SELECT id, email, visits, timestamp
FROM %s
ORDER BY timestamp DESC, id DESC`, table)
}
