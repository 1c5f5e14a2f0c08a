package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"redub/internal/deps"
)

func newDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external tools the pipeline needs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckBinaries(deps.PipelineRequirements())

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				rows = append(rows, []string{status.Name, state, detail, status.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "State", "Where", "Used for"}, rows))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tool(s) missing", len(missing))
			}
			return nil
		},
	}
}
