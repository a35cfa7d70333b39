package sqlstore

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/guestbook/internal/guestbook"
)

const defaultMySQLPort = 3306

// MySQLConfig describes the MySQL server holding the entries table.
// DSN wins over the individual connection fields when set.
type MySQLConfig struct {
	DSN            string
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	Table          string
	MaxConns       int
	ConnectTimeout time.Duration
}

// NewMySQL opens a MySQL pool. No connection is made until first use; call
// Ping to verify reachability.
func NewMySQL(cfg MySQLConfig, clock guestbook.Clock) (*EntryStore, error) {
	driverCfg, err := cfg.driverConfig()
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(driverCfg)
	if err != nil {
		return nil, fmt.Errorf("build mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	store, err := NewEntryStoreWithDB(db, MySQL, cfg.Table, cfg.MaxConns, clock)
	if err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, err
	}
	return store, nil
}

func (c MySQLConfig) driverConfig() (*mysql.Config, error) {
	var driverCfg *mysql.Config
	if c.DSN != "" {
		parsed, err := mysql.ParseDSN(c.DSN)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		driverCfg = parsed
	} else {
		host := c.Host
		if host == "" {
			host = "localhost"
		}
		port := c.Port
		if port == 0 {
			port = defaultMySQLPort
		}
		driverCfg = mysql.NewConfig()
		driverCfg.User = c.User
		driverCfg.Passwd = c.Password
		driverCfg.Net = "tcp"
		driverCfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
		driverCfg.DBName = c.Database
	}
	// DATETIME columns come back as time.Time, interpreted in UTC like the
	// clock that wrote them.
	driverCfg.ParseTime = true
	driverCfg.Loc = time.UTC
	if c.ConnectTimeout > 0 {
		driverCfg.Timeout = c.ConnectTimeout
	}
	return driverCfg, nil
}

// SQLiteConfig describes a SQLite database file holding the entries table.
type SQLiteConfig struct {
	Path        string
	Table       string
	MaxConns    int
	BusyTimeout time.Duration
}

// NewSQLite opens a SQLite pool on cfg.Path.
func NewSQLite(cfg SQLiteConfig, clock guestbook.Clock) (*EntryStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open(SQLite.DriverName, cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store, err := NewEntryStoreWithDB(db, SQLite, cfg.Table, cfg.MaxConns, clock)
	if err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, err
	}
	return store, nil
}

func (c SQLiteConfig) dsn() string {
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Set("_time_format", "sqlite")
	// SQLite decodes %HH in URI filenames, so reserved characters in the
	// path survive the query split.
	path := (&url.URL{Path: c.Path}).EscapedPath()
	return "file:" + path + "?" + q.Encode()
}
