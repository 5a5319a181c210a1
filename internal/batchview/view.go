package batchview

import (
	"sort"
	"strings"

	"simwatch/internal/services/voiceapi"
	"simwatch/internal/sim"
)

// Row pairs a job with the analysis result matched to its call, when any.
type Row struct {
	Job    sim.Job
	Result *sim.AnalysisResult
}

// Analyzed reports whether the row carries a matched analysis result.
func (r Row) Analyzed() bool {
	return r.Result != nil
}

// View is the merged presentation of one batch.
type View struct {
	Batch   sim.Batch
	Rows    []Row
	Summary sim.AnalysisSummary

	// AnalyzedCount is the number of rows with a matched result.
	AnalyzedCount int
	// ReadyCount is the number of calls eligible for analysis, matched or not.
	ReadyCount int
}

// ReadyForAnalysis decides whether a call's transcript is settled enough to
// analyze. A non-empty analytics outcome is authoritative: "completed" means
// ready, anything else means the pipeline rejected the call. A missing or
// null outcome falls through to the job and call status.
func ReadyForAnalysis(job sim.Job) bool {
	call := job.Call
	if call == nil {
		return false
	}
	if call.Analytics != nil {
		if outcome, ok := call.Analytics.OutcomeValue(); ok {
			return outcome == "completed"
		}
	}
	if job.Status == sim.StatusCompleted {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(string(call.Status)), string(sim.StatusCompleted))
}

// Merge joins batch details with analysis results. Results are matched to
// calls by SIP call id first, then by call UUID; a call matched both ways is
// still a single row. Rows with results sort before rows without: analyzed
// rows follow the order the results arrived in, unanalyzed rows keep batch
// order.
func Merge(details *voiceapi.BatchDetails, analysis *voiceapi.BatchAnalysis) *View {
	view := &View{}
	if details == nil {
		return view
	}
	view.Batch = details.Batch

	bySIP := make(map[string]*sim.AnalysisResult)
	byUUID := make(map[string]*sim.AnalysisResult)
	order := make(map[*sim.AnalysisResult]int)
	if analysis != nil {
		view.Summary = analysis.Summary
		for i := range analysis.Results {
			result := &analysis.Results[i]
			order[result] = i
			if id := strings.TrimSpace(result.CallID); id != "" {
				bySIP[id] = result
			}
			if id := strings.TrimSpace(result.CallUUID); id != "" {
				byUUID[id] = result
			}
		}
	}

	view.Rows = make([]Row, 0, len(details.Jobs))
	for _, job := range details.Jobs {
		row := Row{Job: job}
		if call := job.Call; call != nil {
			if result, ok := bySIP[strings.TrimSpace(call.SIPCallID)]; ok {
				row.Result = result
			} else if result, ok := byUUID[strings.TrimSpace(call.UUID)]; ok {
				row.Result = result
			}
			if ReadyForAnalysis(job) {
				view.ReadyCount++
			}
		}
		if row.Result != nil {
			view.AnalyzedCount++
		}
		view.Rows = append(view.Rows, row)
	}

	sort.SliceStable(view.Rows, func(i, j int) bool {
		ri, rj := view.Rows[i], view.Rows[j]
		if ri.Analyzed() != rj.Analyzed() {
			return ri.Analyzed()
		}
		if ri.Analyzed() {
			return order[ri.Result] < order[rj.Result]
		}
		return false
	})
	return view
}

// Resolve finds the row whose call matches key by SIP call id, call UUID, or
// job id. Deep links arrive with whichever identifier the sender had.
func (v *View) Resolve(key string) (Row, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Row{}, false
	}
	for _, row := range v.Rows {
		if row.Job.JobID == key {
			return row, true
		}
		if call := row.Job.Call; call != nil {
			if call.SIPCallID == key || call.UUID == key {
				return row, true
			}
		}
	}
	return Row{}, false
}

// PendingAnalysis lists rows whose calls are ready but not yet analyzed.
func (v *View) PendingAnalysis() []Row {
	pending := make([]Row, 0)
	for _, row := range v.Rows {
		if row.Analyzed() {
			continue
		}
		if ReadyForAnalysis(row.Job) {
			pending = append(pending, row)
		}
	}
	return pending
}
