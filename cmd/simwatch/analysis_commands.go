package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"simwatch/internal/logging"
	"simwatch/internal/reconcile"
)

func newAnalysisCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analysis <batch-id>",
		Short: "Show current analysis results for a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			analysis, err := client.BatchAnalysis(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			headers := []string{"Call", "Result", "CSAT", "Summary"}
			rows := make([][]string, 0, len(analysis.Results))
			for _, result := range analysis.Results {
				callID := result.CallID
				if callID == "" {
					callID = result.CallUUID
				}
				rows = append(rows, []string{
					callID,
					passFail(result.Passed),
					fmt.Sprintf("%d", result.CSATScore),
					result.EvaluationDetails.Summary,
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))

			avg := "-"
			if analysis.Summary.AvgCSAT != nil {
				avg = fmt.Sprintf("%.1f", *analysis.Summary.AvgCSAT)
			}
			fmt.Fprintf(out, "Passed %d, failed %d, pending %d, avg CSAT %s\n",
				analysis.Summary.PassedCount, analysis.Summary.FailedCount, analysis.Summary.PendingCount, avg)
			return nil
		},
	}
}

func newReanalyzeCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var expect int

	cmd := &cobra.Command{
		Use:   "reanalyze <batch-id>",
		Short: "Trigger batch re-analysis and poll until it converges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			defer func() {
				if store != nil {
					_ = store.Close()
				}
			}()

			batchID := strings.TrimSpace(args[0])
			notifier := ctx.notifier()
			out := cmd.OutOrStdout()

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			poller := reconcile.New(client, cfg, logger)
			result, err := poller.Run(runCtx, batchID, expect, force, func(p reconcile.Progress) {
				fmt.Fprintf(out, "poll %d: %d/%d analyzed\n", p.Poll, p.Analyzed, p.Total)
			})
			if err != nil && result == nil {
				return err
			}

			if store != nil && result != nil {
				if recErr := store.RecordAnalysisSession(runCtx, batchID, string(result.Outcome),
					result.Analyzed, result.Total, result.Polls, result.Duration); recErr != nil {
					logger.Warn("record analysis session failed", logging.Error(recErr))
				}
			}

			switch result.Outcome {
			case reconcile.OutcomeNothingToAnalyze:
				fmt.Fprintln(out, "No calls eligible for analysis")
			case reconcile.OutcomeConverged:
				fmt.Fprintf(out, "Analysis converged: %d/%d calls in %s (%d polls)\n",
					result.Analyzed, result.Total, result.Duration.Round(time.Second), result.Polls)
				_ = notifier.NotifyAnalysisCompleted(runCtx, batchID, result.Analyzed, result.Total, result.Duration)
			case reconcile.OutcomeTimedOut:
				fmt.Fprintf(out, "Analysis did not converge: %d/%d calls after %d polls\n",
					result.Analyzed, result.Total, result.Polls)
				_ = notifier.NotifyAnalysisTimedOut(runCtx, batchID, result.Analyzed, result.Total)
			case reconcile.OutcomeCanceled:
				fmt.Fprintln(out, "Analysis polling canceled")
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-analyze calls that already have results")
	cmd.Flags().IntVar(&expect, "expect", 0, "Expected number of analyzable calls (default: backend receipt)")
	return cmd
}

func newAnalyzeCallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze-call <call-uuid>",
		Short: "Analyze a single call and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			result, err := client.AnalyzeCall(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			callID := result.CallID
			if callID == "" {
				callID = result.CallUUID
			}
			fmt.Fprintf(out, "Call %s: %s, CSAT %d\n", callID, passFail(result.Passed), result.CSATScore)
			if result.EvaluationDetails.Summary != "" {
				fmt.Fprintln(out, result.EvaluationDetails.Summary)
			}
			renderCriteria(out, "Should", result.AgentShouldResults)
			renderCriteria(out, "Should not", result.AgentShouldNotResults)
			return nil
		},
	}
}
