package mixer

import (
	"fmt"
	"log/slog"
	"math"

	"redub/internal/audio"
	"redub/internal/logging"
	"redub/internal/segment"
	"redub/internal/services"
)

// duckWindowMs is the envelope analysis window for sidechain ducking.
const duckWindowMs = 10

// speechThreshold is the RMS level above which the voice track counts as
// active for ducking purposes.
const speechThreshold = 0.01

// Options configures mix assembly.
type Options struct {
	// DuckDepthDB is the instrumental attenuation under active speech,
	// expressed as a negative decibel value.
	DuckDepthDB float64
	// AttackMs is how fast the instrumental ducks when speech starts.
	AttackMs int
	// ReleaseMs is how fast it recovers when speech ends.
	ReleaseMs int
	Logger    *slog.Logger
}

// Conflict records a cross-speaker overlap the scheduler had to resolve.
type Conflict struct {
	SegmentID    int64
	OtherID      int64
	ShiftSeconds float64
	// Capped marks conflicts where the shifted segment ran into its next
	// neighbor and lost tail audio.
	Capped bool
}

// Result is the assembled dub track plus everything the scheduler had to do
// to the timeline to produce it.
type Result struct {
	Track     *audio.Clip
	Conflicts []Conflict
}

// Assembler lays fitted segments onto a master timeline and mixes them over
// the ducked instrumental bed. A single assembler goroutine owns the master
// buffer, so placement needs no locking.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// New builds an assembler.
func New(opts Options) *Assembler {
	return &Assembler{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "mixer"),
	}
}

// Assemble places every fitted segment at its source position, resolves
// residual overlaps, and mixes the voice track with the instrumental. The
// returned track is sample-exact at totalSeconds.
func (a *Assembler) Assemble(segments []*segment.Segment, instrumental *audio.Clip, totalSeconds float64, sampleRate int) (*Result, error) {
	if sampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "mixing", "assemble", "sample rate must be positive", nil)
	}
	total := audio.SamplesForDuration(totalSeconds, sampleRate)
	if total <= 0 {
		return nil, services.Wrap(services.ErrValidation, "mixing", "assemble", "total duration must be positive", nil)
	}

	speech := audio.NewSilence(total, sampleRate)
	result := &Result{}

	lastEnd := 0
	var lastID int64
	for i, seg := range segments {
		clip := seg.Fitted
		if clip == nil {
			return nil, services.Wrap(services.ErrStaleState, "mixing", "assemble",
				fmt.Sprintf("segment %d has no fitted audio", seg.ID), nil)
		}

		place := audio.SamplesForDuration(seg.Start, sampleRate)
		length := clip.Len()

		// Residual overlap with already-placed audio: slide the later
		// segment forward until it clears.
		if place < lastEnd {
			shift := lastEnd - place
			place = lastEnd
			conflict := Conflict{
				SegmentID:    seg.ID,
				OtherID:      lastID,
				ShiftSeconds: float64(shift) / float64(sampleRate),
			}

			// The shift may not push the segment into its next neighbor's
			// slot. Trim the tail instead and flag the fit as lossy.
			if next := nextStart(segments, i, sampleRate); next >= 0 && place+length > next {
				length = next - place
				if length < 0 {
					length = 0
				}
				conflict.Capped = true
				seg.Lock()
				seg.Fit.Lossy = true
				seg.Unlock()
			}

			seg.Lock()
			seg.Shifted = conflict.ShiftSeconds
			seg.Unlock()
			result.Conflicts = append(result.Conflicts, conflict)

			a.logger.Warn("segment shifted to resolve overlap",
				logging.Int64("segment_id", seg.ID),
				logging.Int64("overlaps", conflict.OtherID),
				logging.Float64("shift_s", conflict.ShiftSeconds),
				logging.Bool("capped", conflict.Capped),
			)
		}

		if place >= total {
			continue
		}
		if place+length > total {
			length = total - place
		}
		copy(speech.Samples[place:place+length], clip.Samples[:length])

		if end := place + length; end > lastEnd {
			lastEnd = end
			lastID = seg.ID
		}
	}

	bed := a.duckedBed(instrumental, speech, total, sampleRate)
	track := audio.NewSilence(total, sampleRate)
	for i := range track.Samples {
		track.Samples[i] = audio.ClampSample(speech.Samples[i] + bed.Samples[i])
	}
	result.Track = track
	return result, nil
}

// nextStart returns the placement start, in samples, of the segment after
// index i, or -1 when none follows.
func nextStart(segments []*segment.Segment, i int, sampleRate int) int {
	if i+1 >= len(segments) {
		return -1
	}
	return audio.SamplesForDuration(segments[i+1].Start, sampleRate)
}

// duckedBed returns the instrumental resized to total samples with sidechain
// attenuation applied wherever the voice track carries speech.
func (a *Assembler) duckedBed(instrumental, speech *audio.Clip, total, sampleRate int) *audio.Clip {
	bed := audio.NewSilence(total, sampleRate)
	if instrumental != nil {
		n := instrumental.Len()
		if n > total {
			n = total
		}
		copy(bed.Samples[:n], instrumental.Samples[:n])
	}

	envelope := audio.RMSEnvelope(speech, duckWindowMs)
	floor := audio.DBToLinear(a.opts.DuckDepthDB)
	gains := audio.SmoothGate(envelope, speechThreshold, floor,
		windowsFor(a.opts.AttackMs), windowsFor(a.opts.ReleaseMs))

	window := sampleRate * duckWindowMs / 1000
	if window < 1 {
		window = 1
	}
	for i := range bed.Samples {
		w := i / window
		if w >= len(gains) {
			w = len(gains) - 1
		}
		if w < 0 {
			continue
		}
		bed.Samples[i] *= gains[w]
	}
	return bed
}

// windowsFor converts a ramp time in milliseconds to a whole number of
// envelope windows, rounding up so short ramps still take effect.
func windowsFor(ms int) int {
	w := int(math.Ceil(float64(ms) / float64(duckWindowMs)))
	if w < 1 {
		w = 1
	}
	return w
}
