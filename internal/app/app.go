// Package app initializes and holds the long-lived services of the guestbook:
// the entry store with its connection pool, the metrics registry, and the HTTP
// server built on top of them.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/JakeFAU/guestbook/internal/api"
	"github.com/JakeFAU/guestbook/internal/clock/system"
	"github.com/JakeFAU/guestbook/internal/config"
	"github.com/JakeFAU/guestbook/internal/guestbook"
	"github.com/JakeFAU/guestbook/internal/id/uuid"
	"github.com/JakeFAU/guestbook/internal/metrics"
	"github.com/JakeFAU/guestbook/internal/storage/memory"
	"github.com/JakeFAU/guestbook/internal/storage/postgres"
	"github.com/JakeFAU/guestbook/internal/storage/sqlstore"
)

// App holds the shared services. It is built once at startup and closed on exit.
type App struct {
	logger  *zap.Logger
	store   guestbook.Store
	metrics *metrics.Metrics
	server  *api.Server
}

// collectorSource is implemented by stores that expose pool statistics.
type collectorSource interface {
	Collector() prometheus.Collector
}

// New builds metrics, opens and verifies the store, and wires the API server.
// It fails fast when the database cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := metrics.New(cfg.Metrics.Prefix)

	store, err := OpenStore(ctx, cfg.DB, system.New(), logger)
	if err != nil {
		return nil, err
	}

	if src, ok := store.(collectorSource); ok {
		if c := src.Collector(); c != nil {
			if err := m.Register(c); err != nil {
				store.Close()
				return nil, fmt.Errorf("register pool collector: %w", err)
			}
		}
	}

	return &App{
		logger:  logger,
		store:   store,
		metrics: m,
		server:  api.NewServer(store, uuid.New(), m, logger.Named("api")),
	}, nil
}

// OpenStore builds the pool for the configured driver and verifies it by
// acquiring and releasing one connection within the connect timeout.
func OpenStore(ctx context.Context, cfg config.DBConfig, clock guestbook.Clock, logger *zap.Logger) (guestbook.Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store guestbook.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMySQL:
		logger.Info("connecting to mysql", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		store, err = sqlstore.NewMySQL(sqlstore.MySQLConfig{
			DSN:            cfg.DSN,
			Host:           cfg.Host,
			Port:           cfg.Port,
			User:           cfg.User,
			Password:       cfg.Password,
			Database:       cfg.Name,
			Table:          cfg.Table,
			MaxConns:       cfg.MaxConns,
			ConnectTimeout: cfg.ConnectTimeout(),
		}, clock)
	case config.DriverPostgres:
		logger.Info("connecting to postgres", zap.String("host", cfg.Host), zap.String("database", cfg.Name))
		store, err = postgres.NewEntryStore(ctx, postgres.EntryStoreConfig{
			DSN:            cfg.DSN,
			Host:           cfg.Host,
			Port:           cfg.Port,
			User:           cfg.User,
			Password:       cfg.Password,
			Database:       cfg.Name,
			Table:          cfg.Table,
			MaxConns:       int32(cfg.MaxConns), //nolint:gosec // bounded by config validation
			ConnectTimeout: cfg.ConnectTimeout(),
		}, clock)
	case config.DriverSQLite:
		logger.Info("opening sqlite database", zap.String("path", cfg.Path))
		store, err = sqlstore.NewSQLite(sqlstore.SQLiteConfig{
			Path:        cfg.Path,
			Table:       cfg.Table,
			MaxConns:    cfg.MaxConns,
			BusyTimeout: cfg.ConnectTimeout(),
		}, clock)
	case config.DriverMemory:
		logger.Info("using in-memory store; entries are lost on exit")
		store = memory.NewEntryStore(clock)
	default:
		return nil, fmt.Errorf("unknown db driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s store: %w", cfg.Driver, err)
	}

	pingCtx := ctx
	if timeout := cfg.ConnectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("verify %s connection: %w", cfg.Driver, err)
	}
	logger.Info("database connection verified", zap.String("driver", cfg.Driver))
	return store, nil
}

// Handler returns the HTTP handler serving every route.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Store exposes the entry store.
func (a *App) Store() guestbook.Store {
	return a.store
}

// Metrics exposes the metrics registry owner.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Close releases the connection pool.
func (a *App) Close() {
	a.logger.Info("closing entry store")
	a.store.Close()
}
