// Package daemon coordinates the long-running matchreel process.
//
// It wires configuration, the store, the Mux client, the HTTP API, and the
// reconciliation scheduler into a single lifecycle with flock-based locking
// so only one server per data directory runs the scheduler. Manual sync
// calls from the CLI or API stay safe alongside it because reconciliation is
// commutative.
//
// Keep orchestration logic here: domain operations live in ingest,
// reconcile, timeline, and auth while the daemon focuses on startup,
// shutdown, and HTTP transport.
package daemon
