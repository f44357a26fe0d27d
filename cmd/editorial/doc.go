// Package main hosts the editorial review service entrypoint.
//
// Architecture overview:
//   - Sources: one adapter per review site (AllMusic, Pitchfork, Northern Transmissions, The Line of Best Fit)
//     searches for the album, verifies the match, and extracts rating, excerpt, reviewer and date from the page.
//     Adapters share the Colly-based fetcher and the hand-written scanners in internal/scan and internal/extract.
//   - Service: internal/source.Service resolves one source or fans out to every source concurrently and merges the
//     results in source-name order. Resolution failures are logged and yield an empty envelope, never an error.
//   - HTTP API: internal/api.Server exposes health, readiness, metrics, and the review endpoints under /v1.
//   - Persistence: only The Line of Best Fit keeps state, its album index, in the configured storage.Store
//     (memory/local/redis/postgres/sqlite/gcs/noop).
//   - Configuration & plumbing: Viper populates config from env/files (EDITORIAL_ prefix, .env honored); zap provides
//     structured logging; Prometheus metrics are exported via the metrics middleware and /metrics handler.
//
// Quick checklist:
//   - Run the API: go run ./cmd/editorial serve --config config.yaml
//   - One-off lookup: go run ./cmd/editorial resolve --artist "Frank Ocean" --title Blonde
//   - Cloud Run: the server listens on EDITORIAL_SERVER_PORT and drains in-flight requests on SIGTERM.
package main
