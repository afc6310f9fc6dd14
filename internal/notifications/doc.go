// Package notifications delivers library events via ntfy.
//
// The implementation publishes to the topic URL configured under
// [notifications] and degrades to a no-op when no topic is set. The daemon
// announces matches that became playable and uploads that reached Mux
// without a recorded match, so an operator can clean them up.
package notifications
