// Package auth owns accounts and sessions: password verification, user
// registration, team assignment, and opaque bearer tokens.
//
// New digests are bcrypt. Unsalted SHA-256 hex digests written by earlier
// deployments still verify and are upgraded to bcrypt on the next
// successful login.
package auth
