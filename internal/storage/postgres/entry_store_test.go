package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

var _ guestbook.Store = (*EntryStore)(nil)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var (
	upsertPattern = "(?s)" + regexp.QuoteMeta("INSERT INTO entries (email, visits, \"timestamp\")") +
		".*" + regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE")
	listPattern = "(?s)" + regexp.QuoteMeta("SELECT id, email, visits, \"timestamp\"") +
		".*" + regexp.QuoteMeta("ORDER BY \"timestamp\" DESC, id DESC")
)

func entryColumns() []string {
	return []string{"id", "email", "visits", "timestamp"}
}

// newMockStore wires a pgxmock pool and counts acquire/release pairs.
func newMockStore(t *testing.T, now time.Time) (*EntryStore, pgxmock.PgxPoolIface, *int, *int) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewEntryStoreWithPool(mock, "", fixedClock{now: now})
	require.NoError(t, err)

	acquired, released := 0, 0
	store.acquire = func(context.Context) (querier, func(), error) {
		acquired++
		return mock, func() { released++ }, nil
	}
	return store, mock, &acquired, &released
}

func TestRecordVisitAndListUsesOneConnection(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, acquired, released := newMockStore(t, now)

	mock.ExpectExec(upsertPattern).
		WithArgs("a@b.com", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(listPattern).
		WillReturnRows(pgxmock.NewRows(entryColumns()).AddRow(int64(1), "a@b.com", int64(1), now))

	entries, err := store.RecordVisitAndList(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Equal(t, []guestbook.Entry{{ID: 1, Email: "a@b.com", Visits: 1, Timestamp: now}}, entries)
	require.Equal(t, 1, *acquired)
	require.Equal(t, 1, *released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitAndListReleasesOnUpsertFailure(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, acquired, released := newMockStore(t, now)

	mock.ExpectExec(upsertPattern).
		WithArgs("a@b.com", now).
		WillReturnError(errors.New("duplicate key"))

	_, err := store.RecordVisitAndList(context.Background(), "a@b.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert entry")
	require.Equal(t, 1, *acquired)
	require.Equal(t, 1, *released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitAndListReleasesOnQueryFailure(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, _, released := newMockStore(t, now)

	mock.ExpectExec(upsertPattern).
		WithArgs("a@b.com", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(listPattern).WillReturnError(errors.New("connection reset"))

	_, err := store.RecordVisitAndList(context.Background(), "a@b.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "list entries")
	require.Equal(t, 1, *released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVisitExecutesUpsert(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, _, released := newMockStore(t, now)

	mock.ExpectExec(upsertPattern).
		WithArgs(guestbook.DefaultEmail, now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordVisit(context.Background(), guestbook.DefaultEmail))
	require.Equal(t, 1, *released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntriesScansRowsInOrder(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, _, released := newMockStore(t, now)

	mock.ExpectQuery(listPattern).
		WillReturnRows(pgxmock.NewRows(entryColumns()).
			AddRow(int64(2), "b@x.com", int64(3), now).
			AddRow(int64(1), "a@x.com", int64(1), now.Add(-time.Minute)))

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "b@x.com", entries[0].Email)
	require.Equal(t, int64(3), entries[0].Visits)
	require.Equal(t, "a@x.com", entries[1].Email)
	require.Equal(t, 1, *released)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEntriesEmptyTable(t *testing.T) {
	t.Parallel()

	store, mock, _, _ := newMockStore(t, time.Now())
	mock.ExpectQuery(listPattern).WillReturnRows(pgxmock.NewRows(entryColumns()))

	entries, err := store.ListEntries(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestListEntriesRowError(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0).UTC()
	store, mock, _, released := newMockStore(t, now)
	mock.ExpectQuery(listPattern).
		WillReturnRows(pgxmock.NewRows(entryColumns()).
			AddRow(int64(1), "a@x.com", int64(1), now).
			RowError(0, errors.New("bad row")))

	_, err := store.ListEntries(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, *released)
}

func TestAcquireFailureSurfaces(t *testing.T) {
	t.Parallel()

	store, _, _, _ := newMockStore(t, time.Now())
	store.acquire = func(context.Context) (querier, func(), error) {
		return nil, nil, errors.New("pool closed")
	}

	require.ErrorContains(t, store.Ping(context.Background()), "acquire postgres connection")
	require.ErrorContains(t, store.RecordVisit(context.Background(), "a@b.com"), "acquire postgres connection")
	_, err := store.ListEntries(context.Background())
	require.ErrorContains(t, err, "acquire postgres connection")
	_, err = store.RecordVisitAndList(context.Background(), "a@b.com")
	require.ErrorContains(t, err, "acquire postgres connection")
}

func TestPingAcquiresAndReleases(t *testing.T) {
	t.Parallel()

	store, _, acquired, released := newMockStore(t, time.Now())
	require.NoError(t, store.Ping(context.Background()))
	require.Equal(t, 1, *acquired)
	require.Equal(t, 1, *released)
}

func TestNewEntryStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewEntryStoreWithPool(nil, "", fixedClock{})
	require.ErrorContains(t, err, "pool is required")

	_, err = NewEntryStoreWithPool(mock, "entries; DROP TABLE x", fixedClock{})
	require.ErrorContains(t, err, "invalid table name")

	_, err = NewEntryStoreWithPool(mock, "", nil)
	require.ErrorContains(t, err, "clock is required")

	store, err := NewEntryStoreWithPool(mock, "visits", fixedClock{})
	require.NoError(t, err)
	require.Contains(t, store.upsertSQL, "INSERT INTO visits")
	require.Nil(t, store.Collector())
}

func TestNewEntryStoreRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := NewEntryStore(context.Background(), EntryStoreConfig{DSN: "postgres://%zz"}, fixedClock{})
	require.ErrorContains(t, err, "parse postgres dsn")
}

func TestPingUnreachableDatabase(t *testing.T) {
	t.Parallel()

	store, err := NewEntryStore(context.Background(), EntryStoreConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "user",
		Password:       "password",
		Database:       "guestbook_db",
		ConnectTimeout: time.Second,
	}, fixedClock{})
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.Error(t, store.Ping(ctx))
	require.NotNil(t, store.Collector())
}

func TestConnStringFromFields(t *testing.T) {
	t.Parallel()

	cfg := EntryStoreConfig{User: "user", Password: "p@ss", Host: "db", Database: "guestbook_db"}
	require.Equal(t, "postgres://user:p%40ss@db:5432/guestbook_db", cfg.connString())

	cfg.DSN = "postgres://other"
	require.Equal(t, "postgres://other", cfg.connString())
}
