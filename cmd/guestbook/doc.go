// Package main hosts the guestbook service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server serves the guestbook page (GET /), the JSON listing (GET /entries), Prometheus
//     metrics (GET /metrics), and the /healthz and /readyz probes.
//   - Storage: internal/app opens a bounded connection pool for the configured driver (mysql, postgres, sqlite, or
//     memory) and verifies it before the listener is bound. A failed verification exits with status 1.
//   - Configuration & plumbing: a .env file (when present) seeds the environment, Viper reads PORT, LOG_LEVEL and
//     the DB_* variables, zap writes JSON logs to stdout (and optionally a rolling file).
//
// Operational notes:
//   - SIGINT/SIGTERM stop accepting connections and drain in-flight requests for up to SHUTDOWN_TIMEOUT_SECONDS.
//   - Run locally: DB_DRIVER=sqlite DB_PATH=guestbook.db go run ./cmd/guestbook
package main
