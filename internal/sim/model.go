package sim

import (
	"encoding/json"
	"strings"
)

// JobStatus is the client-observed lifecycle state of a job.
type JobStatus string

const (
	StatusInactive   JobStatus = "inactive"
	StatusActive     JobStatus = "active"
	StatusInProgress JobStatus = "inprogress"
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusNoAnswer   JobStatus = "no_answer"
)

// IsTerminal reports whether the job can no longer transition.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer:
		return true
	default:
		return false
	}
}

// CanActivate reports whether a slot may be assigned to the job.
func (s JobStatus) CanActivate() bool { return s == StatusInactive }

// CanDeactivate reports whether the job's slot may be released. A job with a
// call underway keeps its number until the call ends.
func (s JobStatus) CanDeactivate() bool { return s == StatusActive }

// CanRetry reports whether a fresh sibling job may be created from this one.
func (s JobStatus) CanRetry() bool { return s == StatusFailed }

// Batch is a named collection of jobs created together.
type Batch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Direction string `json:"direction"` // "inbound" or "outbound"
	CreatedAt string `json:"created_at"`
}

// Job is one scheduled or attempted simulated call within a batch.
//
// ScenarioSnapshot is the immutable copy of the scenario taken at creation
// time; retries reference the same snapshot through a new job, never by
// mutating this one.
type Job struct {
	JobID               string          `json:"job_id"`
	Status              JobStatus       `json:"status"`
	ScenarioSnapshot    json.RawMessage `json:"scenario_snapshot,omitempty"`
	Call                *Call           `json:"call,omitempty"`
	AssignedPhoneNumber string          `json:"assigned_phone_number,omitempty"`
	GeneratedPayload    json.RawMessage `json:"generated_payload,omitempty"`
}

// Call is a connected telephony session produced by a job attempt. It carries
// two identifiers: the provider-issued SIP call id shown to humans, and the
// internal UUID used for API addressing. Analysis results may report either.
type Call struct {
	UUID            string         `json:"id"`
	SIPCallID       string         `json:"call_id"`
	Status          JobStatus      `json:"status"`
	DurationSeconds float64        `json:"duration_seconds"`
	Analytics       *CallAnalytics `json:"analytics,omitempty"`
}

// CallAnalytics is the telephony-side outcome payload attached to a call.
// Outcome is a pointer so an absent or null field is distinguishable from an
// explicit non-"completed" value.
type CallAnalytics struct {
	Outcome *string `json:"outcome"`
}

// OutcomeValue returns the trimmed outcome and whether it was set at all.
func (a *CallAnalytics) OutcomeValue() (string, bool) {
	if a == nil || a.Outcome == nil {
		return "", false
	}
	return strings.TrimSpace(*a.Outcome), true
}

// CriterionResult is one evaluated scenario criterion.
type CriterionResult struct {
	Criterion string `json:"criterion"`
	Passed    bool   `json:"passed"`
	Evidence  string `json:"evidence"`
	Reasoning string `json:"reasoning"`
}

// EvaluationDetails summarizes the LLM's qualitative judgment.
type EvaluationDetails struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// AnalysisResult is the current LLM evaluation of a call. A call has at most
// one current result; re-analysis replaces it.
type AnalysisResult struct {
	CallID                string            `json:"call_id"`
	CallUUID              string            `json:"call_uuid,omitempty"`
	Passed                bool              `json:"passed"`
	CSATScore             int               `json:"csat_score"`
	AgentShouldResults    []CriterionResult `json:"agent_should_results"`
	AgentShouldNotResults []CriterionResult `json:"agent_should_not_results"`
	EvaluationDetails     EvaluationDetails `json:"evaluation_details"`
}

// AnalysisSummary aggregates batch-level analysis counters.
type AnalysisSummary struct {
	PassedCount  int      `json:"passed_count"`
	FailedCount  int      `json:"failed_count"`
	PendingCount int      `json:"pending_count"`
	AvgCSAT      *float64 `json:"avg_csat"`
}

// PhoneNumber is one inbound slot as reported by the telephony inventory.
type PhoneNumber struct {
	PhoneNumber     string    `json:"phone_number"`
	IsAvailable     bool      `json:"is_available"`
	ActiveJobID     string    `json:"active_job_id,omitempty"`
	ActiveJobStatus JobStatus `json:"active_job_status,omitempty"`
}

// Assignment records a backend-performed job-to-number binding.
type Assignment struct {
	JobID       string `json:"job_id"`
	PhoneNumber string `json:"phone_number"`
}
