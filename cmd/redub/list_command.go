package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"redub/internal/language"
)

func newListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List dubbing runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := cmdCtx.openRunStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs yet")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					r.RunID,
					string(r.Status),
					filepath.Base(r.InputPath),
					language.DisplayName(r.TargetLang),
					fmt.Sprintf("%d", r.SegmentCount),
					r.UpdatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "Status", "Input", "Target", "Segments", "Updated"},
				rows, 4))
			return nil
		},
	}
}
