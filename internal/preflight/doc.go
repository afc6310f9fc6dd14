// Package preflight provides readiness checks for the filesystem, the
// database, and the Mux API that matchreel depends on.
//
// The CLI "matchreel doctor" command runs RunAll and renders each Result.
// Individual checks (CheckDirectoryAccess, CheckDatabase, CheckMux) are
// usable on their own. The Mux check is skipped with a failing result when
// credentials are absent rather than attempting an unauthenticated call.
package preflight
