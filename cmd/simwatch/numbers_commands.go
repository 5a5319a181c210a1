package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"simwatch/internal/sim"
	"simwatch/internal/slots"
)

func newNumbersCommand(ctx *commandContext) *cobra.Command {
	var countryCode string

	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "Show the phone-number slot inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			country := strings.TrimSpace(countryCode)
			if country == "" {
				country = cfg.Inbound.CountryCode
			}

			inventory, err := client.PhoneNumbers(cmd.Context(), country)
			if err != nil {
				return err
			}
			renderNumbers(cmd, inventory.Numbers)
			return nil
		},
	}

	cmd.Flags().StringVar(&countryCode, "country", "", "Restrict to a country code (e.g. IN)")
	cmd.AddCommand(newNumbersFreeCommand(ctx))
	return cmd
}

func renderNumbers(cmd *cobra.Command, numbers []sim.PhoneNumber) {
	headers := []string{"Number", "Available", "Job", "Job Status"}
	rows := make([][]string, 0, len(numbers))
	for _, n := range numbers {
		jobID := n.ActiveJobID
		if jobID == "" {
			jobID = "-"
		}
		status := "-"
		if n.ActiveJobStatus != "" {
			status = statusLabel(n.ActiveJobStatus)
		}
		rows = append(rows, []string{n.PhoneNumber, yesNo(n.IsAvailable), jobID, status})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))
	fmt.Fprintf(out, "%d numbers, %d available\n", len(numbers), slots.Available(numbers, nil))
}

func newNumbersFreeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "free <phone-number>",
		Short: "Force release of a phone number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			number := strings.TrimSpace(args[0])
			if err := client.FreeNumber(cmd.Context(), number); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %s\n", number)
			return nil
		},
	}
}
