// Package services defines shared utilities consumed by the ingest,
// reconciliation, and timeline code and by the Mux integration.
//
// Key responsibilities:
//   - Context helpers that stamp match IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers classify
//     failures with errors.Is instead of string matching.
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the CLI and the HTTP API.
package services
