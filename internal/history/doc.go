// Package history keeps a local SQLite audit log of mutating operations:
// activations, deactivations, retries, and finished analysis sessions. The
// log is advisory; the backend remains the source of truth for current
// state. A file lock keeps concurrent CLI invocations from writing the same
// database.
package history
