// Package voiceapi is the HTTP client for the call batch store: batch and
// job detail reads, analysis reads and triggers, job retry, phone number
// inventory, and inbound slot activation.
//
// The store owns all state; this client never caches responses. Failures are
// tagged with the simwatch error taxonomy so callers can distinguish
// connectivity problems from backend rejections.
package voiceapi
