// Package payloads validates field definitions before a payload generation
// request is dispatched to the backend. Validation happens client-side so a
// malformed definition never reaches the store.
package payloads
