// Package main hosts the matchreel CLI entrypoint and command graph.
//
// The Cobra command tree runs the HTTP server (serve), ingests match videos
// with their event logs, triggers reconciliation, browses matches, events,
// and tags, manages users and teams, scaffolds configuration, reads the
// server log, and sends test notifications. Commands
// other than serve work directly against the configured database as the
// local operator; --as selects another account's view for read commands.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
