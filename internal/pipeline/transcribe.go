package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/services/whisperx"
	"redub/internal/workdir"
)

// fallbackSpeaker labels spans diarization could not attribute.
const fallbackSpeaker = "SPEAKER_00"

// transcribeStage runs WhisperX with diarization over the vocal stem and
// seeds the segment store from the result.
type transcribeStage struct {
	*runState
}

func (s *transcribeStage) Prepare(_ context.Context, _ *run.Run) error {
	if _, err := os.Stat(s.stems().Vocals); err != nil {
		return services.Wrap(services.ErrStaleState, "transcribe", "prepare",
			fmt.Sprintf("vocal stem missing: %s", s.stems().Vocals), err)
	}
	return nil
}

func (s *transcribeStage) Execute(ctx context.Context, r *run.Run) error {
	lang := language.Normalize(r.SourceLang)
	err := s.policy.Run(ctx, "transcribe vocals", func(ctx context.Context, device string) error {
		_, callErr := s.transcriber.Transcribe(ctx, s.stems().Vocals, s.dir.SubDir(workdir.DirTranscript), lang, device)
		return callErr
	})
	if err != nil {
		return err
	}

	jsonPath := s.transcriptJSON()
	if lang == "" {
		detected, err := whisperx.DetectedLanguage(jsonPath)
		if err != nil {
			return err
		}
		r.SourceLang = language.Normalize(detected)
		s.logger.Info("source language detected", logging.String("language", r.SourceLang))
	}

	spans, err := whisperx.LoadSegments(jsonPath)
	if err != nil {
		return err
	}
	if len(spans) == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "load",
			"no speech found in source audio", nil)
	}

	if err := s.populateSegments(spans); err != nil {
		return err
	}
	s.logger.Info("transcript loaded",
		logging.Int("segments", s.segments.Len()),
		logging.Int("speakers", len(s.segments.Speakers())),
	)
	return s.persistSegments(ctx, r)
}

// populateSegments adds diarized spans to the store in timeline order,
// clamping the rare same-speaker overlap WhisperX emits at span boundaries.
func (s *transcribeStage) populateSegments(spans []whisperx.Segment) error {
	lastEnd := make(map[string]float64)
	for _, span := range spans {
		speaker := strings.TrimSpace(span.Speaker)
		if speaker == "" {
			speaker = fallbackSpeaker
		}
		start, end := span.Start, span.End
		if prev, ok := lastEnd[speaker]; ok && start < prev {
			start = prev
		}
		if end <= start {
			s.logger.Warn("dropping empty span after overlap clamp",
				logging.String(logging.FieldSpeaker, speaker),
				logging.Float64("start_s", span.Start),
				logging.Float64("end_s", span.End),
			)
			continue
		}
		if _, err := s.segments.Add(speaker, start, end, strings.TrimSpace(span.Text)); err != nil {
			return err
		}
		lastEnd[speaker] = end
	}
	if s.segments.Len() == 0 {
		return services.Wrap(services.ErrValidation, "transcribe", "load",
			"every span collapsed during overlap clamping", nil)
	}
	return nil
}
