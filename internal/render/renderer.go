// Package render drives speech synthesis for every translated segment, with
// bounded parallelism and per-segment failure isolation.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"redub/internal/audio"
	"redub/internal/logging"
	"redub/internal/segment"
	"redub/internal/services"
	"redub/internal/services/accel"
	"redub/internal/services/xtts"
	"redub/internal/voices"
)

// DefaultConcurrency bounds parallel synthesis workers. Synthesis is memory
// hungry; two workers saturate a typical machine without thrashing.
const DefaultConcurrency = 2

const syntheticReferenceFile = "default_speaker.wav"

// Synthesizer is the synthesis backend. Satisfied by xtts.Service.
type Synthesizer interface {
	Synthesize(ctx context.Context, req xtts.Request, device string) error
}

// Options configures the renderer.
type Options struct {
	// Concurrency is the worker pool size.
	Concurrency int
	// Language is the synthesis language code (XTTS style, e.g. "de").
	Language string
	// OutDir receives per-segment synthesized WAV files.
	OutDir string
	// VoiceBankDir holds the named default voice reference clips.
	VoiceBankDir string
	// SampleRate is the pipeline rate synthesized audio is converted to.
	SampleRate int
	Logger     *slog.Logger
}

// Failure records one segment whose synthesis was abandoned. The run
// continues; the slot falls back to original-language audio downstream.
type Failure struct {
	SegmentID int64
	Speaker   string
	Err       error
}

// Renderer synthesizes dubbed speech for all segments in the store.
type Renderer struct {
	opts     Options
	store    *segment.Store
	registry *voices.Registry
	synth    Synthesizer
	policy   *accel.Policy
	logger   *slog.Logger

	mu       sync.Mutex
	failures []Failure
}

// New builds a renderer.
func New(opts Options, store *segment.Store, registry *voices.Registry, synth Synthesizer, policy *accel.Policy) *Renderer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Renderer{
		opts:     opts,
		store:    store,
		registry: registry,
		synth:    synth,
		policy:   policy,
		logger:   logging.NewComponentLogger(opts.Logger, "renderer"),
	}
}

// RenderAll synthesizes every segment with translated text. Individual
// synthesis failures are isolated: the segment is marked failed, recorded,
// and the rest of the batch proceeds. Only cancellation or store corruption
// aborts the whole render.
func (r *Renderer) RenderAll(ctx context.Context) ([]Failure, error) {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Concurrency)

	for _, seg := range r.store.OrderedByStart() {
		seg := seg
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return r.renderSegment(ctx, seg)
		})
	}

	if err := group.Wait(); err != nil {
		return r.failures, err
	}
	return r.failures, nil
}

func (r *Renderer) renderSegment(ctx context.Context, seg *segment.Segment) error {
	logger := logging.WithContext(services.WithSegmentID(services.WithSpeaker(ctx, seg.Speaker), seg.ID), r.logger)

	seg.Lock()
	text := seg.TranslatedText
	seg.Unlock()
	if text == "" {
		return r.abandon(seg, logger, fmt.Errorf("segment %d has no translated text", seg.ID))
	}

	reference, err := r.referenceFor(seg.Speaker)
	if err != nil {
		return r.abandon(seg, logger, err)
	}

	outPath := filepath.Join(r.opts.OutDir, fmt.Sprintf("segment_%d.wav", seg.ID))
	req := xtts.Request{
		Text:       text,
		SpeakerWAV: reference,
		Language:   r.opts.Language,
		OutPath:    outPath,
	}

	err = r.policy.Run(ctx, fmt.Sprintf("synthesize segment %d", seg.ID), func(ctx context.Context, device string) error {
		return r.synth.Synthesize(ctx, req, device)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return r.abandon(seg, logger, err)
	}

	clip, err := audio.ReadWAV(outPath)
	if err != nil {
		return r.abandon(seg, logger, fmt.Errorf("read synthesized audio: %w", err))
	}
	clip = audio.Resample(clip, r.opts.SampleRate)

	if err := r.store.SetSynthesized(seg.ID, clip); err != nil {
		return err
	}
	logger.Debug("segment synthesized",
		logging.Float64("duration_s", clip.Seconds()),
		logging.String("output", outPath),
	)
	return nil
}

// abandon marks a segment's synthesis as failed and records the failure. The
// error return is reserved for store corruption; synthesis errors never abort
// the batch.
func (r *Renderer) abandon(seg *segment.Segment, logger *slog.Logger, cause error) error {
	logger.Warn("segment synthesis abandoned",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "segment_synthesis_failed"),
		logging.String(logging.FieldImpact, "slot will keep original-language audio"),
	)
	if err := r.store.MarkSynthesisFailed(seg.ID); err != nil {
		return err
	}
	r.mu.Lock()
	r.failures = append(r.failures, Failure{SegmentID: seg.ID, Speaker: seg.Speaker, Err: cause})
	r.mu.Unlock()
	return nil
}

// referenceFor resolves the speaker's reference clip: the registry's profile
// first, then the voice bank for default voices, then the synthetic tone as a
// last resort.
func (r *Renderer) referenceFor(speaker string) (string, error) {
	profile, err := r.registry.Resolve(speaker)
	if err == nil {
		if profile.Cloned() {
			return profile.ReferencePath, nil
		}
		bankPath := filepath.Join(r.opts.VoiceBankDir, profile.DefaultVoice+".wav")
		if _, statErr := os.Stat(bankPath); statErr == nil {
			return bankPath, nil
		}
		r.logger.Warn("default voice clip missing from bank",
			logging.String(logging.FieldSpeaker, speaker),
			logging.String("voice", profile.DefaultVoice),
			logging.String(logging.FieldEventType, "voice_bank_missing"),
			logging.String(logging.FieldErrorHint, "add "+profile.DefaultVoice+".wav to "+r.opts.VoiceBankDir),
			logging.String(logging.FieldImpact, "speaker falls back to the synthetic reference"),
		)
	}

	syntheticPath := filepath.Join(r.opts.OutDir, syntheticReferenceFile)
	if refErr := xtts.EnsureSyntheticReference(syntheticPath); refErr != nil {
		return "", fmt.Errorf("speaker %s has no usable voice reference: %w", speaker, refErr)
	}
	return syntheticPath, nil
}
