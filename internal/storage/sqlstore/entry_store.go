package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultTable    = "entries"
	defaultMaxConns = 10
)

// EntryStore records visits through a bounded *sql.DB pool.
type EntryStore struct {
	db      *sql.DB
	dialect Dialect
	clock   guestbook.Clock

	upsertSQL string
	listSQL   string
}

// NewEntryStoreWithDB wraps an open pool. maxConns bounds concurrently open
// connections; callers beyond the bound wait without limit. A zero maxConns
// selects the default of 10.
func NewEntryStoreWithDB(
	db *sql.DB,
	dialect Dialect,
	table string,
	maxConns int,
	clock guestbook.Clock,
) (*EntryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	return &EntryStore{
		db:        db,
		dialect:   dialect,
		clock:     clock,
		upsertSQL: dialect.upsertSQL(table),
		listSQL:   listSQL(table),
	}, nil
}

// Ping checks one connection out of the pool and returns it.
func (s *EntryStore) Ping(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire %s connection: %w", s.dialect.Name, err)
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("release %s connection: %w", s.dialect.Name, err)
	}
	return nil
}

// RecordVisit upserts the entry for email.
func (s *EntryStore) RecordVisit(ctx context.Context, email string) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		return s.upsert(ctx, conn, email)
	})
}

// ListEntries returns every entry, most recently active first.
func (s *EntryStore) ListEntries(ctx context.Context) ([]guestbook.Entry, error) {
	var entries []guestbook.Entry
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		var err error
		entries, err = s.list(ctx, conn)
		return err
	})
	return entries, err
}

// RecordVisitAndList upserts email and reads every entry back on the same connection.
func (s *EntryStore) RecordVisitAndList(ctx context.Context, email string) ([]guestbook.Entry, error) {
	var entries []guestbook.Entry
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		if err := s.upsert(ctx, conn, email); err != nil {
			return err
		}
		var err error
		entries, err = s.list(ctx, conn)
		return err
	})
	return entries, err
}

// Close closes the pool.
func (s *EntryStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close() //nolint:errcheck // nothing to do on shutdown
}

// Collector exposes database/sql pool statistics for this store.
func (s *EntryStore) Collector() prometheus.Collector {
	return collectors.NewDBStatsCollector(s.db, s.dialect.Name)
}

func (s *EntryStore) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire %s connection: %w", s.dialect.Name, err)
	}
	defer conn.Close() //nolint:errcheck // returning to the pool
	return fn(conn)
}

func (s *EntryStore) upsert(ctx context.Context, conn *sql.Conn, email string) error {
	if _, err := conn.ExecContext(ctx, s.upsertSQL, s.dialect.upsertArgs(email, s.clock.Now())...); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

func (s *EntryStore) list(ctx context.Context, conn *sql.Conn) ([]guestbook.Entry, error) {
	rows, err := conn.QueryContext(ctx, s.listSQL)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	entries := make([]guestbook.Entry, 0)
	for rows.Next() {
		var e guestbook.Entry
		if err := rows.Scan(&e.ID, &e.Email, &e.Visits, scanTime{t: &e.Timestamp}); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}
	return entries, nil
}
