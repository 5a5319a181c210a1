// Package sim defines the shared domain model for simulated call batches:
// batches, jobs, calls, phone numbers, and LLM analysis results as reported
// by the backend store.
package sim
