// Package store persists teams, users, matches, tagged events, and login
// sessions in SQLite (default) or Postgres.
//
// Schema changes ship as numbered golang-migrate files under migrations/<dialect>;
// Open applies pending migrations before returning. Timestamps are stored as
// RFC3339 text in UTC in both dialects so rows scan identically regardless of
// driver.
//
// Visibility filtering is expressed through the Scope interface so callers
// decide who sees what while this package only renders the predicate into SQL.
// A match's ready transition is a single conditional UPDATE: asset id,
// playback id, and status change together or not at all.
package store
