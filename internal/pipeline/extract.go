package pipeline

import (
	"context"
	"fmt"
	"os"

	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
)

// extractStage probes the source and pulls its first audio track into the
// work directory as stereo PCM at the pipeline sample rate.
type extractStage struct {
	*runState
}

func (s *extractStage) Prepare(ctx context.Context, r *run.Run) error {
	if _, ok := language.XTTSCode(r.TargetLang); !ok {
		return services.Wrap(services.ErrConfiguration, "extract", "probe",
			"synthesis does not support target language: "+r.TargetLang, nil)
	}
	if _, err := os.Stat(r.InputPath); err != nil {
		return services.Wrap(services.ErrValidation, "extract", "probe",
			fmt.Sprintf("input not readable: %s", r.InputPath), err)
	}

	probe, err := s.media.Inspect(ctx, r.InputPath)
	if err != nil {
		return err
	}
	if !probe.HasAudio() {
		return services.Wrap(services.ErrValidation, "extract", "probe",
			"input has no audio stream", nil)
	}
	if !probe.HasVideo() {
		return services.Wrap(services.ErrValidation, "extract", "probe",
			"input has no video stream", nil)
	}

	seconds, err := probe.DurationSeconds()
	if err != nil {
		return err
	}
	r.DurationSeconds = seconds
	s.logger.Info("source probed",
		logging.Float64("duration_s", seconds),
	)
	return nil
}

func (s *extractStage) Execute(ctx context.Context, r *run.Run) error {
	return s.media.ExtractAudio(ctx, r.InputPath, s.extractedWAV())
}
