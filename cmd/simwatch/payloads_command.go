package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"simwatch/internal/payloads"
)

func newPayloadsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payloads",
		Short: "Call payload utilities",
	}
	cmd.AddCommand(newPayloadsGenerateCommand(ctx))
	return cmd
}

func newPayloadsGenerateCommand(ctx *commandContext) *cobra.Command {
	var fieldSpecs []string
	var regenerate bool

	cmd := &cobra.Command{
		Use:   "generate <batch-id>",
		Short: "Generate call payloads for a batch from field definitions",
		Long: fmt.Sprintf(`Generate call payloads for every job in a batch.

Fields are given as name:type or name:type:description, one per --field
flag. Supported types: %s.`, strings.Join(payloads.FieldTypes, ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := payloads.Parse(fieldSpecs)
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			batchID := strings.TrimSpace(args[0])
			receipt, err := client.GeneratePayloads(cmd.Context(), batchID, fields, regenerate)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated payloads for %d jobs in batch %s\n",
				receipt.GeneratedCount, batchID)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&fieldSpecs, "field", "f", nil, "Field definition as name:type[:description] (repeatable)")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate payloads for jobs that already have one")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}
