package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"redub/internal/deps"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/pipeline"
	"redub/internal/run"
)

func newDubCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		sourceLang string
		targetLang string
		outputDir  string
		workDir    string
		speakerWAV string
		subtitles  bool
		maxSpeak   int
		lowMem     bool
		keepWork   bool
		fresh      bool
	)

	cmd := &cobra.Command{
		Use:   "dub INPUT",
		Short: "Dub a video into another language",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := cmdCtx.openRunStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if targetLang == "" {
				return fmt.Errorf("--target-lang is required")
			}
			targetLang = language.Normalize(targetLang)
			if _, ok := language.XTTSCode(targetLang); !ok {
				return fmt.Errorf("unsupported target language %q", targetLang)
			}
			sourceLang = language.Normalize(sourceLang)

			if missing := deps.MissingRequired(deps.CheckBinaries(deps.PipelineRequirements())); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %s (run `redub deps`)", strings.Join(missing, ", "))
			}

			if outputDir != "" {
				cfg.Paths.OutputDir = outputDir
			}
			if workDir != "" {
				cfg.Paths.WorkDir = workDir
			}
			if maxSpeak > 0 {
				cfg.Pipeline.MaxSpeakers = maxSpeak
			}
			if lowMem {
				cfg.Models.LowMemory = true
			}
			if keepWork {
				cfg.Pipeline.KeepWorkDir = true
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			input, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			if _, err := os.Stat(input); err != nil {
				return fmt.Errorf("input not readable: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context(), time.Duration(cfg.Pipeline.CancelGraceSeconds)*time.Second)
			defer cancel()

			if err := store.ResetProcessing(ctx); err != nil {
				return err
			}

			var r *run.Run
			if !fresh {
				r, err = store.FindResumable(ctx, input, targetLang)
				if err != nil {
					return err
				}
			}
			if r == nil {
				r, err = store.NewRun(ctx, input, sourceLang, targetLang)
				if err != nil {
					return err
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Resuming run %s from status %s\n", r.RunID, r.Status)
			}

			logger, err := logging.NewForRun(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir, r.RunID)
			if err != nil {
				return err
			}

			orchestrator, err := pipeline.New(pipeline.Options{
				Config:           cfg,
				Store:            store,
				Logger:           logger,
				SpeakerReference: speakerWAV,
				Subtitles:        subtitles,
			})
			if err != nil {
				return err
			}

			if err := orchestrator.Execute(ctx, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dubbed output: %s\n", r.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceLang, "source-lang", "", "Source language (detected when omitted)")
	cmd.Flags().StringVar(&targetLang, "target-lang", "", "Target dubbing language")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured output directory")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Override the configured work directory")
	cmd.Flags().StringVar(&speakerWAV, "speaker-wav", "", "Reference clip for voice cloning (single-speaker sources)")
	cmd.Flags().BoolVar(&subtitles, "subtitles", false, "Write a translated SRT sidecar next to the output")
	cmd.Flags().IntVar(&maxSpeak, "max-speakers", 0, "Cap the diarization speaker count")
	cmd.Flags().BoolVar(&lowMem, "low-mem", false, "Use smaller models and reduced memory settings")
	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep the run work directory after success")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Start a new run even when a resumable one exists")
	return cmd
}

// signalContext cancels on SIGINT/SIGTERM. A second signal, or the grace
// period expiring, exits immediately.
func signalContext(parent context.Context, grace time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-signals:
		case <-ctx.Done():
			signal.Stop(signals)
			return
		}
		fmt.Fprintln(os.Stderr, "Cancelling, waiting for in-flight work...")
		cancel()
		select {
		case <-signals:
		case <-time.After(grace):
		}
		os.Exit(130)
	}()
	return ctx, cancel
}
