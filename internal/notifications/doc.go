// Package notifications delivers operator-facing events via pluggable
// notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Category toggles let operators keep activation chatter quiet while
// still hearing about analysis completion and errors.
//
// Extend this package if you need alternative transports; callers depend only
// on the Service interface.
package notifications
