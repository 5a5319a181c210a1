// Package logging provides slog-based structured logging for simwatch.
//
// It supplies console and JSON handlers, standardized field keys for batch
// and job identifiers, attribute helpers, and context-aware logger
// augmentation so every component logs correlation ids the same way.
package logging
