// Package slots answers how many phone-number slots are free and guards
// activation requests against over-allocation. Availability is owned by the
// backend, so every function here works on a caller-supplied fresh snapshot;
// nothing is cached across an activation round-trip.
package slots
