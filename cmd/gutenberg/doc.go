// Package main hosts the gutenberg service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the book and analysis routes plus
//     health, readiness and metrics endpoints.
//   - Library service: internal/library.Service fetches a book from the store
//     or scrapes it from Project Gutenberg (internal/gutenberg) on first use,
//     and caches LLM analyses (internal/llm) per (book, kind).
//   - Persistence: Postgres via pgxpool (internal/storage/postgres) with goose
//     migrations embedded in the binary, or an in-memory store for local runs.
//   - Configuration & plumbing: Viper populates config from env/files (the
//     DATABASE_URL, GROQ_API_KEY, PORT and HOST names are honoured); zap
//     provides structured logging; Prometheus metrics are exported on /metrics.
//
// Quick checklist:
//   - Configure env vars: DATABASE_URL, GROQ_API_KEY, optionally
//     USE_DATABASE_SSL / PGSQL_SSL_MODE, PORT and HOST. A .env file in the
//     working directory is read first.
//   - Run locally: go run ./cmd/gutenberg serve (add
//     GUTENBERG_DATABASE_DRIVER=memory to skip Postgres).
//   - Schema: migrations run on serve unless database.migrate_on_start is
//     false; `gutenberg migrate status` reports the applied version.
//   - Troubleshooting: `gutenberg doctor` prints the effective settings with
//     secrets masked and tests the database connection.
package main
