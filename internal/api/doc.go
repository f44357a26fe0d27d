// Package api hosts the HTTP server, middleware, and REST handlers for the
// review resolver. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/sources and /v1/sources/{source}/health for adapter discovery.
//   - POST /v1/sources/{source}/reviews to resolve one source and
//     POST /v1/reviews to resolve every source, both taking the
//     {"title","artist","year"} envelope and answering {"reviews":[...]}.
package api
