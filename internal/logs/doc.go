// Package logs reads the server's JSON log file for `matchreel logs`.
//
// Tail returns the last N entries (or everything after a byte offset) and can
// poll for new lines in follow mode. Entries are decoded from the JSON lines
// written by the logging package and can be narrowed by level, component, or
// match id before the limit is applied.
package logs
