// Package access decides which matches and events a viewer may see.
//
// A Viewer is built once per request (HTTP session or CLI invocation) and
// passed explicitly to every query. Visibility reduces to a Scope: every
// match, one team's matches, or nothing. Events additionally require their
// match to be ready; that check lives in the store queries.
package access
