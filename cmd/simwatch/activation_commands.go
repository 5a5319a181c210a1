package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"simwatch/internal/activation"
)

func newActivateCommand(ctx *commandContext) *cobra.Command {
	var (
		count   int
		country string
	)

	cmd := &cobra.Command{
		Use:   "activate <batch-id> [job-id...]",
		Short: "Assign phone numbers to inactive jobs",
		Long: `Assign phone numbers to inactive jobs in a batch.

With explicit job ids, exactly those jobs are activated. With --count N and
no job ids, the first N inactive jobs are picked in backend order. The
request is rejected locally when the slot inventory shows too few free
numbers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, cleanup, err := ctx.coordinator(activation.WithCountryCode(country))
			if err != nil {
				return err
			}
			defer cleanup()

			batchID := strings.TrimSpace(args[0])
			jobIDs := args[1:]

			var result *activation.Result
			if len(jobIDs) > 0 {
				if count > 0 {
					return fmt.Errorf("pass either job ids or --count, not both")
				}
				result, err = coord.Activate(cmd.Context(), batchID, jobIDs)
			} else {
				if count <= 0 {
					return fmt.Errorf("pass job ids or --count N")
				}
				result, err = coord.ActivateFirstN(cmd.Context(), batchID, count)
			}
			if err != nil {
				return ctx.reportError(cmd.Context(), err, "activate")
			}

			out := cmd.OutOrStdout()
			headers := []string{"Job", "Number"}
			rows := make([][]string, 0, len(result.Activated))
			for _, a := range result.Activated {
				rows = append(rows, []string{a.JobID, a.PhoneNumber})
			}
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft}))
			fmt.Fprintf(out, "Activated %d jobs in batch %s\n", len(result.Activated), batchID)
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Activate the first N inactive jobs")
	cmd.Flags().StringVar(&country, "country", "", "Override the configured country filter for number selection")
	return cmd
}

func newDeactivateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <batch-id> <job-id...>",
		Short: "Release the phone numbers held by active jobs",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, cleanup, err := ctx.coordinator()
			if err != nil {
				return err
			}
			defer cleanup()

			batchID := strings.TrimSpace(args[0])
			result, err := coord.Deactivate(cmd.Context(), batchID, args[1:])
			if err != nil {
				return ctx.reportError(cmd.Context(), err, "deactivate")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %d numbers in batch %s\n", result.Released, batchID)
			return nil
		},
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Create a fresh job from a failed one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, cleanup, err := ctx.coordinator()
			if err != nil {
				return err
			}
			defer cleanup()

			jobID := strings.TrimSpace(args[0])
			newID, err := coord.Retry(cmd.Context(), jobID)
			if err != nil {
				return ctx.reportError(cmd.Context(), err, "retry")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retry of %s queued as %s\n", jobID, newID)
			return nil
		},
	}
}
