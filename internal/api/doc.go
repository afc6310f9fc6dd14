// Package api defines wire-format types and converters for the HTTP API and
// the CLI's --json output. It translates store, timeline, and reconcile
// models into transport-friendly DTOs so consumers never couple to internal
// types.
//
// # Key Types
//
// Match: a listed match; placeholders carry no playback URL.
//
// Event: a playable event with its match context and seek offset.
//
// SyncSummary: the outcome of one reconciliation pass.
//
// ErrorResponse: the body of every non-2xx response.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Enums (match status, role, outcome) are
// exposed as lowercase strings. Timestamps use RFC3339 with milliseconds.
//
// StatusFor maps classified service errors to HTTP status codes so the CLI
// and HTTP surfaces agree on failure semantics.
package api
