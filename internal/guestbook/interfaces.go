package guestbook

import (
	"context"
	"time"
)

// Store records visits and lists entries against a relational backend.
//
// Every method checks a connection out of the backend's pool and returns it
// before returning, on success and on failure.
type Store interface {
	// Ping acquires and releases one connection to prove the backend is reachable.
	Ping(ctx context.Context) error

	// RecordVisit inserts email with one visit, or increments the visits of the
	// existing row and refreshes its timestamp. It is a single atomic statement.
	RecordVisit(ctx context.Context, email string) error

	// ListEntries returns every entry, most recently active first.
	ListEntries(ctx context.Context) ([]Entry, error)

	// RecordVisitAndList runs RecordVisit followed by ListEntries on one
	// connection, releasing it only after the read-back.
	RecordVisitAndList(ctx context.Context, email string) ([]Entry, error)

	// Close releases the pool.
	Close()
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
