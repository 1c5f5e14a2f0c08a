package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/logging"
	"redub/internal/workdir"
)

func newCleanCommand(cmdCtx *commandContext) *cobra.Command {
	var maxAgeHours int

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale run work directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			hours := maxAgeHours
			if hours <= 0 {
				hours = cfg.Pipeline.WorkDirRetentionHrs
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			result := workdir.CleanStale(cfg.Paths.WorkDir, time.Duration(hours)*time.Hour, logger)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale work director(ies)\n", len(result.Removed))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d director(ies) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeHours, "max-age-hours", 0, "Override the configured retention window")
	return cmd
}
