package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recorded operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("history is disabled; enable it in the [history] config section")
			}
			defer store.Close()

			ops, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			headers := []string{"When", "Kind", "Batch", "Job", "Detail"}
			rows := make([][]string, 0, len(ops))
			for _, op := range ops {
				when := "-"
				if !op.OccurredAt.IsZero() {
					when = op.OccurredAt.Local().Format("2006-01-02 15:04:05")
				}
				batch := op.BatchID
				if batch == "" {
					batch = "-"
				}
				job := op.JobID
				if job == "" {
					job = "-"
				}
				rows = append(rows, []string{when, op.Kind, batch, job, op.Detail})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
			fmt.Fprintf(out, "%d operations (database: %s)\n", len(ops), store.Path())
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum entries to list")
	return cmd
}
