// Package api hosts the HTTP server, middleware chain, and handlers.
// Routes:
//   - POST /process-pdf/ (and /process-pdf) runs one ingestion.
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
package api
