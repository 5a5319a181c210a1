package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"simwatch/internal/batchview"
	"simwatch/internal/sim"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var callKey string

	cmd := &cobra.Command{
		Use:   "status <batch-id>",
		Short: "Show batch jobs merged with analysis results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			batchID := strings.TrimSpace(args[0])

			details, err := client.BatchDetails(cmd.Context(), batchID)
			if err != nil {
				return err
			}
			analysis, err := client.BatchAnalysis(cmd.Context(), batchID)
			if err != nil {
				// Render what we have; analysis may simply not exist yet.
				analysis = nil
			}
			view := batchview.Merge(details, analysis)

			out := cmd.OutOrStdout()
			if strings.TrimSpace(callKey) != "" {
				row, ok := view.Resolve(callKey)
				if !ok {
					return fmt.Errorf("no job or call matches %q in batch %s", callKey, batchID)
				}
				renderRowDetail(out, row)
				return nil
			}

			renderBatchView(out, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&callKey, "call", "", "Show a single job by job id, call id, or call UUID")
	return cmd
}

func renderBatchView(out io.Writer, view *batchview.View) {
	if view.Batch.Name != "" {
		fmt.Fprintf(out, "Batch: %s (%s, %s)\n", view.Batch.Name, view.Batch.ID, view.Batch.Direction)
	} else if view.Batch.ID != "" {
		fmt.Fprintf(out, "Batch: %s\n", view.Batch.ID)
	}

	headers := []string{"Job", "Status", "Number", "Call", "Duration", "Analyzed", "Result", "CSAT"}
	rows := make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		rows = append(rows, statusRow(row))
	}
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{
		alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight,
	}))

	fmt.Fprintf(out, "%d jobs, %d analyzed, %d ready for analysis\n",
		len(view.Rows), view.AnalyzedCount, view.ReadyCount)
	if view.Summary.PassedCount+view.Summary.FailedCount > 0 {
		avg := "-"
		if view.Summary.AvgCSAT != nil {
			avg = fmt.Sprintf("%.1f", *view.Summary.AvgCSAT)
		}
		fmt.Fprintf(out, "Passed %d, failed %d, pending %d, avg CSAT %s\n",
			view.Summary.PassedCount, view.Summary.FailedCount, view.Summary.PendingCount, avg)
	}
}

func statusRow(row batchview.Row) []string {
	job := row.Job
	callID := "-"
	duration := "-"
	if job.Call != nil {
		if job.Call.SIPCallID != "" {
			callID = job.Call.SIPCallID
		} else if job.Call.UUID != "" {
			callID = job.Call.UUID
		}
		duration = formatDuration(job.Call.DurationSeconds)
	}
	number := job.AssignedPhoneNumber
	if number == "" {
		number = "-"
	}
	result := "-"
	csat := "-"
	if row.Result != nil {
		if row.Result.Passed {
			result = "pass"
		} else {
			result = "fail"
		}
		csat = fmt.Sprintf("%d", row.Result.CSATScore)
	}
	return []string{
		job.JobID,
		statusLabel(job.Status),
		number,
		callID,
		duration,
		yesNo(row.Analyzed()),
		result,
		csat,
	}
}

func renderRowDetail(out io.Writer, row batchview.Row) {
	job := row.Job
	fmt.Fprintf(out, "Job:    %s\n", job.JobID)
	fmt.Fprintf(out, "Status: %s\n", statusLabel(job.Status))
	if job.AssignedPhoneNumber != "" {
		fmt.Fprintf(out, "Number: %s\n", job.AssignedPhoneNumber)
	}
	if call := job.Call; call != nil {
		fmt.Fprintf(out, "Call:   %s (uuid %s)\n", call.SIPCallID, call.UUID)
		fmt.Fprintf(out, "        status %s, duration %s\n", call.Status, formatDuration(call.DurationSeconds))
		if outcome, ok := call.Analytics.OutcomeValue(); ok {
			fmt.Fprintf(out, "        outcome %s\n", outcome)
		}
	}
	if result := row.Result; result != nil {
		fmt.Fprintf(out, "Result: %s, CSAT %d\n", passFail(result.Passed), result.CSATScore)
		if result.EvaluationDetails.Summary != "" {
			fmt.Fprintf(out, "        %s\n", result.EvaluationDetails.Summary)
		}
		renderCriteria(out, "Should", result.AgentShouldResults)
		renderCriteria(out, "Should not", result.AgentShouldNotResults)
	}
}

func renderCriteria(out io.Writer, label string, criteria []sim.CriterionResult) {
	if len(criteria) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, c := range criteria {
		fmt.Fprintf(out, "  [%s] %s\n", passFail(c.Passed), c.Criterion)
	}
}

func passFail(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}
