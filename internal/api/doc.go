// Package api hosts the HTTP server, middleware, and REST handlers.
// Notable routes:
//   - GET /api/books and /api/books/{book_id} to list and fetch books. A book
//     missing from the store is scraped from the archive on first request.
//   - POST /api/analysis/{characters,language,plot} for cached LLM analyses.
//   - GET /api/health and /readyz for liveness and readiness checks,
//     GET /metrics for Prometheus.
package api
