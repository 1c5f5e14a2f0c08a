package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"redub/internal/report"
)

func newReportCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Show the outcome report for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := cmdCtx.openRunStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			r, err := store.GetByRunID(ctx, args[0])
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("no run with id %q", args[0])
			}

			records, err := store.LoadSegments(ctx, r.RunID)
			if err != nil {
				return err
			}
			summary, err := report.Build(r, records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderPairs(summary.OverviewRows()))

			if rows := summary.FindingRows(); len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Severity", "Type", "Segment", "Speaker", "Detail"},
					rows, 2))
			}
			return nil
		},
	}
}
