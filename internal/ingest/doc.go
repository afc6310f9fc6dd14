// Package ingest turns a recorded match into a pending Match row: it parses
// the tagging export, creates a Mux direct upload, streams the video to it,
// and records the match with its events in a single transaction.
//
// Failures before the transfer leave nothing behind. A failure after a
// successful transfer is reported as an orphaned upload that carries the
// provider's upload id so an operator can clean it up.
package ingest
