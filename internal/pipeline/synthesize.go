package pipeline

import (
	"context"
	"fmt"

	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/media"
	"redub/internal/render"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/voices"
	"redub/internal/workdir"
)

// synthesizeStage clones each speaker's voice and renders every translated
// segment to its own WAV.
type synthesizeStage struct {
	*runState
}

func (s *synthesizeStage) Prepare(ctx context.Context, r *run.Run) error {
	if err := s.ensureSegments(ctx, r); err != nil {
		return err
	}
	return s.loadVocals()
}

func (s *synthesizeStage) Execute(ctx context.Context, r *run.Run) error {
	xttsLang, ok := language.XTTSCode(r.TargetLang)
	if !ok {
		return services.Wrap(services.ErrConfiguration, "synthesize", "execute",
			"synthesis does not support target language: "+r.TargetLang, nil)
	}

	registry := voices.NewRegistry(voices.Options{
		Dir:                 s.dir.SubDir(workdir.DirVoices),
		ExplicitReference:   s.explicitReference,
		DefaultVoices:       s.cfg.Voices.DefaultVoices,
		MinReferenceSeconds: s.cfg.Voices.MinReferenceSeconds,
		SampleRate:          media.PipelineSampleRate,
		Language:            r.SourceLang,
		Logger:              s.logger,
	}, s.segments, s.vocals)

	renderer := render.New(render.Options{
		Concurrency:  s.cfg.Pipeline.RenderConcurrency,
		Language:     xttsLang,
		OutDir:       s.dir.SubDir(workdir.DirTTS),
		VoiceBankDir: s.voiceBankDir(),
		SampleRate:   media.PipelineSampleRate,
		Logger:       s.logger,
	}, s.segments, registry, s.synth, &s.policy)

	failures, err := renderer.RenderAll(ctx)
	if err != nil {
		return err
	}
	// Individual fallbacks degrade the run; every segment falling back means
	// no speech was dubbed at all, which is fatal.
	if total := s.segments.Len(); total > 0 && len(failures) == total {
		return services.Wrap(services.ErrExternalTool, "synthesize", "execute",
			fmt.Sprintf("synthesis failed for all %d segments", total), nil)
	}
	for _, failure := range failures {
		s.addFinding(ctx, r, run.Finding{
			Severity:  run.SeverityWarning,
			Type:      "synthesis_fallback",
			SegmentID: failure.SegmentID,
			Speaker:   failure.Speaker,
			Detail:    fmt.Sprintf("kept original audio: %v", failure.Err),
		})
	}
	if len(failures) > 0 {
		s.logger.Warn("some segments kept original audio",
			logging.Int("failed", len(failures)),
			logging.Int("total", s.segments.Len()),
		)
	}
	return s.persistSegments(ctx, r)
}
