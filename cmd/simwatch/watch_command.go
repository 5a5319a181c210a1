package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"simwatch/internal/slots"
	"simwatch/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var intervalSeconds int

	cmd := &cobra.Command{
		Use:   "watch <batch-id>",
		Short: "Watch a batch live, refreshing until interrupted",
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

			batchID := strings.TrimSpace(args[0])
			var opts []watch.Option
			if intervalSeconds > 0 {
				opts = append(opts, watch.WithInterval(time.Duration(intervalSeconds)*time.Second))
			}
			monitor := watch.New(client, cfg, logger, batchID, opts...)

			runCtx, cancel := signalContext(cmd.Context())
			defer cancel()

			out := cmd.OutOrStdout()
			err = monitor.Run(runCtx, func(snapshot watch.Snapshot) {
				fmt.Fprintf(out, "--- %s ---\n", snapshot.FetchedAt.Format("15:04:05"))
				renderBatchView(out, snapshot.View)
				fmt.Fprintf(out, "Numbers: %d free of %d\n\n",
					slots.Available(snapshot.Numbers, nil), len(snapshot.Numbers))
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVar(&intervalSeconds, "interval", 0, "Refresh interval in seconds (default from config)")
	return cmd
}
