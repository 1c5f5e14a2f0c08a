package fitter

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"redub/internal/audio"
	"redub/internal/logging"
	"redub/internal/segment"
	"redub/internal/services"
)

// trailingPauseMinSeconds is the smallest pause at the end of the original
// slot worth redistributing padding around. Shorter pauses are articulation
// gaps, not timing cues.
const trailingPauseMinSeconds = 0.2

// trimSearchFraction bounds how far back from the cut point the silence scan
// may wander, as a fraction of the clip.
const trimSearchFraction = 0.25

// Stretch speed clamp, mirroring audio.Stretch's hard bounds. Mismatches the
// clamp cannot absorb fall back to trimming or padding.
const (
	minStretchSpeed = 0.5
	maxStretchSpeed = 2.0
)

// Options configures the fitter.
type Options struct {
	// Tolerance is the fractional duration mismatch a stretch absorbs
	// without being flagged on the fit result.
	Tolerance float64
	// MaxStretchSemitones bounds the stretch amount, expressed as the pitch
	// drift an equivalent resample would cause.
	MaxStretchSemitones float64
	Logger              *slog.Logger
}

// Fitter reconciles synthesized clip durations with their source slots.
// Segments are processed per speaker in start order so borrow-from-next
// lookups always see unmodified neighbor spans; distinct speakers fit in
// parallel.
type Fitter struct {
	opts   Options
	store  *segment.Store
	vocals *audio.Clip
	logger *slog.Logger
}

// New builds a fitter over the segment store. vocals is the separated source
// vocal track, used for original-timing pause detection and as the fallback
// audio for segments whose synthesis failed.
func New(opts Options, store *segment.Store, vocals *audio.Clip) *Fitter {
	return &Fitter{
		opts:   opts,
		store:  store,
		vocals: vocals,
		logger: logging.NewComponentLogger(opts.Logger, "fitter"),
	}
}

// FitAll fits every segment in the store. After it returns without error,
// each segment's fitted clip spans its slot (plus any recorded borrow)
// sample-exactly.
func (f *Fitter) FitAll(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, speaker := range f.store.Speakers() {
		speaker := speaker
		group.Go(func() error {
			for _, seg := range f.store.BySpeaker(speaker) {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := f.fitSegment(ctx, seg); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return group.Wait()
}

func (f *Fitter) fitSegment(ctx context.Context, seg *segment.Segment) error {
	logger := logging.WithContext(services.WithSegmentID(services.WithSpeaker(ctx, seg.Speaker), seg.ID), f.logger)

	clip := seg.Synthesized
	if seg.SynthesisFailed || clip == nil {
		return f.fitFallback(seg, logger)
	}

	fitted, result, err := f.fit(seg, clip)
	if err != nil {
		return services.Wrap(services.ErrTransient, "fitting", "fit segment",
			fmt.Sprintf("segment %d", seg.ID), err)
	}

	logger.Debug("segment fitted",
		logging.String("strategy", string(result.Strategy)),
		logging.Float64("ratio", result.Ratio),
		logging.Bool("lossy", result.Lossy),
		logging.Float64("borrowed_s", result.BorrowedSeconds),
		logging.Float64("trimmed_s", result.TrimmedSeconds),
	)
	return f.store.SetFitted(seg.ID, fitted, result)
}

// fitFallback fills the slot with the original-language vocal audio for
// segments without synthesized speech.
func (f *Fitter) fitFallback(seg *segment.Segment, logger *slog.Logger) error {
	sampleRate := 0
	if f.vocals != nil {
		sampleRate = f.vocals.SampleRate
	}
	if sampleRate <= 0 {
		return services.Wrap(services.ErrConfiguration, "fitting", "fallback",
			fmt.Sprintf("segment %d has no synthesized audio and no source vocals exist", seg.ID), nil)
	}

	start := audio.SamplesForDuration(seg.Start, sampleRate)
	slot := audio.SamplesForDuration(seg.SlotSeconds(), sampleRate)
	clip := f.vocals.Slice(start, start+slot).PadTo(slot)

	logger.Warn("reusing original-language audio for segment",
		logging.String(logging.FieldEventType, "segment_fallback_audio"),
		logging.String(logging.FieldImpact, "this span stays in the source language"),
	)
	return f.store.SetFitted(seg.ID, clip, segment.FitResult{Strategy: segment.FitExact, Ratio: 1})
}

// fit applies the duration reconciliation policy to one clip.
func (f *Fitter) fit(seg *segment.Segment, clip *audio.Clip) (*audio.Clip, segment.FitResult, error) {
	slotSamples := audio.SamplesForDuration(seg.SlotSeconds(), clip.SampleRate)
	if slotSamples <= 0 {
		return nil, segment.FitResult{}, fmt.Errorf("empty slot for segment %d", seg.ID)
	}

	ratio := float64(clip.Len()) / float64(slotSamples)
	result := segment.FitResult{Ratio: ratio}

	if clip.Len() == slotSamples {
		result.Strategy = segment.FitExact
		return clip.Clone(), result, nil
	}

	if ratio > 1 {
		return f.fitLong(seg, clip, slotSamples, result)
	}
	return f.fitShort(seg, clip, slotSamples, result)
}

// stretchable reports whether a clip-to-slot ratio may be absorbed by a
// time-stretch: inside the hard speed clamp and under the configured pitch
// bound.
func (f *Fitter) stretchable(ratio float64) bool {
	return ratio >= minStretchSpeed && ratio <= maxStretchSpeed &&
		audio.SemitoneShift(ratio) <= f.opts.MaxStretchSemitones
}

// fitLong handles speech running past its slot: borrow trailing gap before
// the same speaker's next segment first, speed the remainder up as far as
// the stretch bounds allow, and trim only what stretching cannot absorb.
func (f *Fitter) fitLong(seg *segment.Segment, clip *audio.Clip, slotSamples int, result segment.FitResult) (*audio.Clip, segment.FitResult, error) {
	target := slotSamples

	overshoot := clip.Len() - slotSamples
	if gap := f.gapToNextSamples(seg, clip.SampleRate); gap > 0 {
		borrow := overshoot
		if borrow > gap {
			borrow = gap
		}
		target += borrow
		result.BorrowedSeconds = float64(borrow) / float64(clip.SampleRate)
		result.Strategy = segment.FitBorrowed
	}

	if clip.Len() == target {
		return clip.Clone(), result, nil
	}

	residualRatio := float64(clip.Len()) / float64(target)
	if f.stretchable(residualRatio) {
		stretched, err := audio.Stretch(clip, target)
		if err != nil {
			return nil, result, err
		}
		if result.Strategy == segment.FitNone {
			result.Strategy = segment.FitStretched
		}
		result.Lossy = residualRatio > 1+f.opts.Tolerance
		return stretched, result, nil
	}

	// Hard trim, preferring a low-energy boundary near the cut point.
	searchSpan := int(float64(clip.Len()) * trimSearchFraction)
	cut, atSilence := audio.FindCutBoundary(clip, target, searchSpan)
	trimmed := clip.Slice(0, cut).PadTo(target)
	result.TrimmedSeconds = float64(clip.Len()-cut) / float64(clip.SampleRate)
	result.Strategy = segment.FitTrimmed
	result.Lossy = !atSilence
	return trimmed, result, nil
}

// fitShort handles speech underrunning its slot: slow the clip down to fill
// the slot when the stretch bounds allow, otherwise pad with silence. When
// the original slot ends in a detectable pause, padding is split so the
// speech sits where mouth movement actually stopped.
func (f *Fitter) fitShort(seg *segment.Segment, clip *audio.Clip, slotSamples int, result segment.FitResult) (*audio.Clip, segment.FitResult, error) {
	if f.stretchable(result.Ratio) {
		stretched, err := audio.Stretch(clip, slotSamples)
		if err != nil {
			return nil, result, err
		}
		result.Strategy = segment.FitStretched
		result.Lossy = result.Ratio < 1-f.opts.Tolerance
		return stretched, result, nil
	}

	result.Strategy = segment.FitPadded
	deficit := slotSamples - clip.Len()

	if f.originalTrailingPauseSeconds(seg) >= trailingPauseMinSeconds {
		return clip.PadAround(deficit/2, slotSamples), result, nil
	}
	return clip.PadTo(slotSamples), result, nil
}

// gapToNextSamples returns the borrowable gap after the segment, in clip
// samples: the silence before the same speaker's next segment, capped at the
// start of any other speaker's segment inside it. The last segment of a
// speaker has no gap to borrow: later speech may belong to other speakers.
func (f *Fitter) gapToNextSamples(seg *segment.Segment, sampleRate int) int {
	next := f.store.NextOfSpeaker(seg)
	if next == nil {
		return 0
	}
	limit := next.Start
	for _, other := range f.store.OrderedByStart() {
		if other.ID == seg.ID || other.Speaker == seg.Speaker {
			continue
		}
		if other.Start >= seg.End && other.Start < limit {
			limit = other.Start
		}
	}
	gap := limit - seg.End
	if gap <= 0 {
		return 0
	}
	return audio.SamplesForDuration(gap, sampleRate)
}

// originalTrailingPauseSeconds measures silence at the end of the source
// vocal audio inside the segment's slot.
func (f *Fitter) originalTrailingPauseSeconds(seg *segment.Segment) float64 {
	if f.vocals == nil || f.vocals.Len() == 0 {
		return 0
	}
	start := audio.SamplesForDuration(seg.Start, f.vocals.SampleRate)
	end := audio.SamplesForDuration(seg.End, f.vocals.SampleRate)
	slot := f.vocals.Slice(start, end)
	if slot.Len() == 0 {
		return 0
	}
	return float64(audio.TrailingSilenceSamples(slot)) / float64(f.vocals.SampleRate)
}
