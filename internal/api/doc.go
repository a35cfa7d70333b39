// Package api hosts the HTTP server, middleware, and handlers of the
// guestbook. Notable routes:
//   - GET / records a visit for ?email= (or the anonymous address) and renders
//     every entry as an HTML table.
//   - GET /entries lists the entries as JSON without recording anything.
//   - GET /metrics for Prometheus scraping.
//   - GET /healthz and /readyz for orchestrator probes.
package api
