package pipeline

import (
	"context"
	"fmt"

	"redub/internal/audio"
	"redub/internal/fitter"
	"redub/internal/run"
	"redub/internal/segment"
)

// fitStage reconciles synthesized clip durations with their source slots and
// writes the fitted clips as artifacts for the mix stage.
type fitStage struct {
	*runState
}

func (s *fitStage) Prepare(ctx context.Context, r *run.Run) error {
	if err := s.ensureSegments(ctx, r); err != nil {
		return err
	}
	if err := s.loadVocals(); err != nil {
		return err
	}
	if s.needsSynthesizedReload() {
		return s.loadSynthesized()
	}
	return nil
}

// needsSynthesizedReload reports whether synthesized clips are absent from
// memory, which happens when a run resumes directly into fitting.
func (s *fitStage) needsSynthesizedReload() bool {
	for _, seg := range s.segments.OrderedByStart() {
		seg.Lock()
		hasClip := seg.Synthesized != nil
		failed := seg.SynthesisFailed
		seg.Unlock()
		if hasClip {
			return false
		}
		if !failed {
			return true
		}
	}
	return false
}

func (s *fitStage) Execute(ctx context.Context, r *run.Run) error {
	f := fitter.New(fitter.Options{
		Tolerance:           s.cfg.Pipeline.FitTolerance,
		MaxStretchSemitones: s.cfg.Pipeline.MaxStretchSemitones,
		Logger:              s.logger,
	}, s.segments, s.vocals)

	if err := f.FitAll(ctx); err != nil {
		return err
	}

	for _, seg := range s.segments.OrderedByStart() {
		seg.Lock()
		clip := seg.Fitted
		fit := seg.Fit
		speaker := seg.Speaker
		seg.Unlock()
		if clip == nil {
			continue
		}
		if err := audio.WriteWAV(s.fittedWAV(seg.ID), clip); err != nil {
			return err
		}
		if fit.Lossy && fit.Strategy == segment.FitTrimmed {
			s.addFinding(ctx, r, run.Finding{
				Severity:  run.SeverityWarning,
				Type:      "lossy_trim",
				SegmentID: seg.ID,
				Speaker:   speaker,
				Detail:    fmt.Sprintf("trimmed %.2fs of speech", fit.TrimmedSeconds),
			})
		}
	}
	return s.persistSegments(ctx, r)
}
