// Package activation coordinates slot assignment for inbound batch jobs.
//
// The coordinator enforces the client-side preconditions before any mutating
// request leaves the process: requested jobs must exist and be in the right
// state, and a fresh slot inventory must show enough free numbers. The
// backend stays authoritative for the actual assignment; after every
// successful mutation the coordinator refetches batch details so callers see
// backend truth, never a locally patched view. An in-flight set serializes
// mutations touching the same job.
package activation
