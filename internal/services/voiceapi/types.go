package voiceapi

import "simwatch/internal/sim"

// BatchDetails is the full batch snapshot: the batch record and every job,
// including nested calls with their analytics.
type BatchDetails struct {
	Batch sim.Batch `json:"batch"`
	Jobs  []sim.Job `json:"jobs"`
}

// BatchAnalysis carries the aggregate summary and the current per-call
// analysis results for a batch.
type BatchAnalysis struct {
	Summary sim.AnalysisSummary  `json:"summary"`
	Results []sim.AnalysisResult `json:"results"`
}

// BatchAnalyzeStatusNoCalls is reported by the bulk analyze trigger when the
// batch has no eligible calls; no analysis job was started.
const BatchAnalyzeStatusNoCalls = "no_calls"

// BatchAnalyzeReceipt acknowledges a bulk analysis trigger.
type BatchAnalyzeReceipt struct {
	Status     string `json:"status"`
	TotalCalls int    `json:"total_calls"`
}

// ActivationReceipt reports the backend-performed number assignments.
type ActivationReceipt struct {
	ActivatedJobs int              `json:"activated_jobs"`
	Assignments   []sim.Assignment `json:"assignments"`
}

// DeactivationReceipt reports which jobs released their numbers.
type DeactivationReceipt struct {
	ReleasedJobs []string `json:"released_jobs"`
}

// NumberInventory is the current telephony slot snapshot.
type NumberInventory struct {
	Numbers []sim.PhoneNumber `json:"numbers"`
}

// FieldDefinition describes one field of a generated call payload.
type FieldDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// PayloadGenerationReceipt acknowledges a payload generation request.
type PayloadGenerationReceipt struct {
	Status         string `json:"status"`
	GeneratedCount int    `json:"generated_count"`
}

type retryReceipt struct {
	JobID string `json:"job_id"`
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}
