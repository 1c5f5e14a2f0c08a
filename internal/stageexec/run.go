// Package stageexec executes one pipeline stage with the status transition
// and failure persistence semantics shared by every stage.
package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/stage"
)

// Options controls stage execution and run persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Store      *run.Store
	Handler    stage.Handler
	StageName  string
	Processing run.Status
	Done       run.Status
	Run        *run.Run
}

// Run executes a stage and applies the status transition semantics of a
// one-shot pipeline: mark processing, prepare, execute, then land on the done
// status unless the stage moved the run itself.
func Run(ctx context.Context, opts Options) error {
	if opts.Handler == nil {
		return fmt.Errorf("stage handler unavailable: %s", opts.StageName)
	}
	if opts.Store == nil {
		return fmt.Errorf("run store is required")
	}
	if opts.Run == nil {
		return fmt.Errorf("run is required")
	}

	stageCtx := logging.WithStage(ctx, opts.StageName)
	stageLogger := logging.WithContext(stageCtx, opts.Logger)
	if aware, ok := opts.Handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(opts.Processing)),
		logging.String("input", strings.TrimSpace(opts.Run.InputPath)),
	)

	setRunProcessingState(opts.Run, opts.Processing)
	if err := opts.Store.Update(stageCtx, opts.Run); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}

	if err := opts.Handler.Prepare(stageCtx, opts.Run); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Run, err)
	}
	if err := opts.Store.Update(stageCtx, opts.Run); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := opts.Handler.Execute(stageCtx, opts.Run); err != nil {
		return handleFailure(stageCtx, stageLogger, opts.Store, opts.Run, err)
	}

	if opts.Run.Status == opts.Processing || opts.Run.Status == "" {
		opts.Run.Status = opts.Done
	}
	if err := opts.Store.Update(stageCtx, opts.Run); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}

	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(opts.Run.Status)),
		logging.String("progress_stage", strings.TrimSpace(opts.Run.ProgressStage)),
	)

	return nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, store *run.Store, r *run.Run, stageErr error) error {
	message := "stage failed"
	if stageErr != nil {
		details := services.Details(stageErr)
		message = strings.TrimSpace(details.Message)
		if message == "" {
			message = strings.TrimSpace(stageErr.Error())
		}
	}
	r.SetFailed(message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(run.StatusFailed)),
		logging.String("error_message", strings.TrimSpace(message)),
		logging.Error(stageErr),
	)
	if err := store.Update(ctx, r); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	return stageErr
}

func setRunProcessingState(r *run.Run, processing run.Status) {
	r.Status = processing
	r.ProgressStage = deriveStageLabel(processing)
	r.ProgressMessage = fmt.Sprintf("%s started", deriveStageLabel(processing))
	r.ProgressPercent = 0
	r.ErrorMessage = ""
}

func deriveStageLabel(status run.Status) string {
	if status == "" {
		return ""
	}
	parts := strings.Fields(strings.ReplaceAll(string(status), "_", " "))
	for i, part := range parts {
		if part == "" {
			continue
		}
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
