// Package postgres provides the Postgres-backed guestbook entry store.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	defaultTable    = "entries"
	defaultPort     = 5432
	defaultMaxConns = 10
)

// EntryStoreConfig controls the Postgres connection pool backing the guestbook.
// DSN wins over the individual connection fields when set.
type EntryStoreConfig struct {
	DSN            string
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	Table          string
	MaxConns       int32
	ConnectTimeout time.Duration
}

type querier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
}

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	querier
	Close()
}

// acquireFunc checks a connection out of the pool; release must be called exactly once.
type acquireFunc func(ctx context.Context) (conn querier, release func(), err error)

// EntryStore records visits into a Postgres table through a bounded pool.
type EntryStore struct {
	pool    Pool
	acquire acquireFunc
	clock   guestbook.Clock
	stat    func() *pgxpool.Stat

	upsertSQL string
	listSQL   string
}

// NewEntryStore creates the pool described by cfg. The pool connects lazily;
// call Ping to verify reachability.
func NewEntryStore(ctx context.Context, cfg EntryStoreConfig, clock guestbook.Clock) (*EntryStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := newEntryStore(pool, cfg.Table, clock)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store.acquire = func(ctx context.Context) (querier, func(), error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // wrapped by callers
		}
		return conn, conn.Release, nil
	}
	store.stat = pool.Stat
	return store, nil
}

// NewEntryStoreWithPool constructs a store from an existing pool (primarily for testing).
// Each operation runs directly on the pool.
func NewEntryStoreWithPool(pool Pool, table string, clock guestbook.Clock) (*EntryStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return newEntryStore(pool, table, clock)
}

func newEntryStore(pool Pool, table string, clock guestbook.Clock) (*EntryStore, error) {
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &EntryStore{
		pool: pool,
		acquire: func(context.Context) (querier, func(), error) {
			return pool, func() {}, nil
		},
		clock: clock,
		upsertSQL: fmt.Sprintf(`
INSERT INTO %[1]s (email, visits, "timestamp")
VALUES ($1, 1, $2)
ON CONFLICT (email) DO UPDATE
SET visits = %[1]s.visits + 1,
	"timestamp" = EXCLUDED."timestamp"`, table),
		listSQL: fmt.Sprintf(`
SELECT id, email, visits, "timestamp"
FROM %s
ORDER BY "timestamp" DESC, id DESC`, table),
	}, nil
}

// Ping acquires one connection and releases it immediately.
func (s *EntryStore) Ping(ctx context.Context) error {
	_, release, err := s.acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire postgres connection: %w", err)
	}
	release()
	return nil
}

// RecordVisit upserts the entry for email.
func (s *EntryStore) RecordVisit(ctx context.Context, email string) error {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire postgres connection: %w", err)
	}
	defer release()
	return s.upsert(ctx, conn, email)
}

// ListEntries returns every entry, most recently active first.
func (s *EntryStore) ListEntries(ctx context.Context) ([]guestbook.Entry, error) {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire postgres connection: %w", err)
	}
	defer release()
	return s.list(ctx, conn)
}

// RecordVisitAndList upserts email and reads every entry back on the same connection.
func (s *EntryStore) RecordVisitAndList(ctx context.Context, email string) ([]guestbook.Entry, error) {
	conn, release, err := s.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire postgres connection: %w", err)
	}
	defer release()
	if err := s.upsert(ctx, conn, email); err != nil {
		return nil, err
	}
	return s.list(ctx, conn)
}

// Close releases the underlying pool resources.
func (s *EntryStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Collector exposes pool statistics, or nil when the store wraps a foreign pool.
func (s *EntryStore) Collector() prometheus.Collector {
	if s.stat == nil {
		return nil
	}
	return NewPoolCollector(s.stat)
}

func (s *EntryStore) upsert(ctx context.Context, conn querier, email string) error {
	if _, err := conn.Exec(ctx, s.upsertSQL, email, s.clock.Now()); err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

func (s *EntryStore) list(ctx context.Context, conn querier) ([]guestbook.Entry, error) {
	rows, err := conn.Query(ctx, s.listSQL)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]guestbook.Entry, 0)
	for rows.Next() {
		var e guestbook.Entry
		if err := rows.Scan(&e.ID, &e.Email, &e.Visits, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entry rows: %w", err)
	}
	return entries, nil
}

func (c EntryStoreConfig) connString() string {
	if c.DSN != "" {
		return c.DSN
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + c.Database,
	}
	return u.String()
}
