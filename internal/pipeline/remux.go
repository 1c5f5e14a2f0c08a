package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/subtitles"
)

// remuxStage muxes the dubbed track back under the original video and, when
// asked, writes a translated subtitle sidecar next to it.
type remuxStage struct {
	*runState
}

func (s *remuxStage) Prepare(ctx context.Context, r *run.Run) error {
	if _, err := os.Stat(s.mixWAV()); err != nil {
		return services.Wrap(services.ErrStaleState, "remux", "prepare",
			fmt.Sprintf("mixed track missing: %s", s.mixWAV()), err)
	}
	if s.subtitles {
		if err := s.ensureSegments(ctx, r); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(s.cfg.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("ensure output directory: %w", err)
	}
	r.OutputPath = OutputPath(s.cfg.Paths.OutputDir, r.InputPath, r.TargetLang)
	return nil
}

func (s *remuxStage) Execute(ctx context.Context, r *run.Run) error {
	if err := s.media.Remux(ctx, r.InputPath, s.mixWAV(), r.OutputPath); err != nil {
		return err
	}

	if s.subtitles {
		sidecar := strings.TrimSuffix(r.OutputPath, filepath.Ext(r.OutputPath)) + ".srt"
		if err := subtitles.WriteSRT(s.segments, sidecar); err != nil {
			return err
		}
		s.logger.Info("subtitle sidecar written", logging.String("path", sidecar))
	}

	r.Status = run.StatusCompleted
	r.SetProgress("Completed", "dubbed output written", 100)
	s.logger.Info("run completed",
		logging.String("output", r.OutputPath),
		logging.Int("segments", r.SegmentCount),
	)
	return nil
}
