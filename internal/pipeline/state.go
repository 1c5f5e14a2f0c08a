package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"redub/internal/audio"
	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/media"
	"redub/internal/render"
	"redub/internal/run"
	"redub/internal/segment"
	"redub/internal/services"
	"redub/internal/services/accel"
	"redub/internal/services/demucs"
	"redub/internal/services/translate"
	"redub/internal/services/whisperx"
	"redub/internal/workdir"
)

const extractedFile = "audio.wav"

// runState is everything the stage handlers of one run share: configuration,
// services, the work directory, and in-memory audio that is expensive to
// reload.
type runState struct {
	cfg    *config.Config
	store  *run.Store
	logger *slog.Logger

	media       *media.Toolset
	separator   *demucs.Service
	transcriber *whisperx.Service
	translator  *translate.Service
	synth       render.Synthesizer
	policy      accel.Policy

	// explicitReference is the run-level --speaker-wav path, if any.
	explicitReference string
	// subtitles asks the remux stage for an SRT sidecar.
	subtitles bool

	dir      *workdir.Dir
	segments *segment.Store

	extracted    *audio.Clip
	vocals       *audio.Clip
	instrumental *audio.Clip
}

func (s *runState) extractedWAV() string {
	return s.dir.Path(workdir.DirExtract, extractedFile)
}

func (s *runState) stems() demucs.StemPaths {
	return s.separator.Stems(s.extractedWAV(), s.dir.SubDir(workdir.DirStems))
}

func (s *runState) transcriptJSON() string {
	stem := filepath.Base(s.stems().Vocals)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	return s.dir.Path(workdir.DirTranscript, stem+".json")
}

func (s *runState) synthesizedWAV(segmentID int64) string {
	return s.dir.Path(workdir.DirTTS, fmt.Sprintf("segment_%d.wav", segmentID))
}

func (s *runState) fittedWAV(segmentID int64) string {
	return s.dir.Path(workdir.DirFit, fmt.Sprintf("segment_%d.wav", segmentID))
}

func (s *runState) mixWAV() string {
	return s.dir.Path(workdir.DirMix, "dub.wav")
}

func (s *runState) voiceBankDir() string {
	return filepath.Join(s.cfg.Paths.ModelDir, "voices")
}

// loadClip reads a work-directory WAV at the pipeline sample rate. A missing
// artifact means the persisted status is ahead of what survives on disk.
func (s *runState) loadClip(path string) (*audio.Clip, error) {
	clip, err := audio.ReadWAV(path)
	if err != nil {
		return nil, services.Wrap(services.ErrStaleState, "pipeline", "resume",
			fmt.Sprintf("work directory artifact unreadable: %s", path), err)
	}
	return audio.Resample(clip, media.PipelineSampleRate), nil
}

func (s *runState) loadVocals() error {
	if s.vocals != nil {
		return nil
	}
	clip, err := s.loadClip(s.stems().Vocals)
	if err != nil {
		return err
	}
	s.vocals = clip
	return nil
}

func (s *runState) loadInstrumental() error {
	if s.instrumental != nil {
		return nil
	}
	clip, err := s.loadClip(s.stems().Instrumental)
	if err != nil {
		return err
	}
	s.instrumental = clip
	return nil
}

// ensureSegments rebuilds the in-memory segment store from persisted rows
// when a run resumes past the transcription stage.
func (s *runState) ensureSegments(ctx context.Context, r *run.Run) error {
	if s.segments.Len() > 0 {
		return nil
	}

	records, err := s.store.LoadSegments(ctx, r.RunID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return services.Wrap(services.ErrStaleState, "pipeline", "resume",
			"run has no persisted segments", nil)
	}

	for _, record := range records {
		seg, err := s.segments.Add(record.Speaker, record.Start, record.End, record.SourceText)
		if err != nil {
			return err
		}
		if seg.ID != record.SegmentID {
			return services.Wrap(services.ErrStaleState, "pipeline", "resume",
				fmt.Sprintf("segment id drift: rebuilt %d, persisted %d", seg.ID, record.SegmentID), nil)
		}
		if record.TranslatedText != "" {
			if err := s.segments.SetTranslation(seg.ID, record.TranslatedText); err != nil {
				return err
			}
		}
		if record.SynthesisFailed {
			if err := s.segments.MarkSynthesisFailed(seg.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadSynthesized reattaches synthesized clips from the tts artifact dir.
func (s *runState) loadSynthesized() error {
	for _, seg := range s.segments.OrderedByStart() {
		seg.Lock()
		failed := seg.SynthesisFailed
		untranslated := seg.TranslatedText == ""
		seg.Unlock()
		if failed || untranslated {
			continue
		}
		clip, err := s.loadClip(s.synthesizedWAV(seg.ID))
		if err != nil {
			return err
		}
		if err := s.segments.SetSynthesized(seg.ID, clip); err != nil {
			return err
		}
	}
	return nil
}

// loadFitted reattaches fitted clips and their recorded fit outcomes.
func (s *runState) loadFitted(ctx context.Context, r *run.Run) error {
	records, err := s.store.LoadSegments(ctx, r.RunID)
	if err != nil {
		return err
	}
	outcomes := make(map[int64]run.SegmentRecord, len(records))
	for _, record := range records {
		outcomes[record.SegmentID] = record
	}

	for _, seg := range s.segments.OrderedByStart() {
		record, ok := outcomes[seg.ID]
		if !ok || record.FitStrategy == "" {
			return services.Wrap(services.ErrStaleState, "pipeline", "resume",
				fmt.Sprintf("segment %d has no persisted fit outcome", seg.ID), nil)
		}
		clip, err := s.loadClip(s.fittedWAV(seg.ID))
		if err != nil {
			return err
		}
		result := segment.FitResult{
			Strategy: segment.FitStrategy(record.FitStrategy),
			Ratio:    record.FitRatio,
			Lossy:    record.FitLossy,
		}
		if err := s.segments.SetFitted(seg.ID, clip, result); err != nil {
			return err
		}
	}
	return nil
}

func (s *runState) persistSegments(ctx context.Context, r *run.Run) error {
	segments := s.segments.OrderedByStart()
	r.SegmentCount = len(segments)
	return s.store.SaveSegments(ctx, r.RunID, segments)
}

func (s *runState) addFinding(ctx context.Context, r *run.Run, finding run.Finding) {
	if err := s.store.AppendFinding(ctx, r, finding); err != nil {
		s.logger.Warn("failed to record finding",
			logging.String("type", finding.Type),
			logging.Error(err),
		)
	}
}
