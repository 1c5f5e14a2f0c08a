package audio

import (
	"fmt"
	"math"
)

// WSOLA parameters. A 50ms frame with 50% overlap rides well over speech
// pitch periods; the 10ms seek window is enough to realign phase.
const (
	stretchFrameMs = 50
	stretchSeekMs  = 10
)

// SemitoneShift returns the pitch drift, in semitones, that a naive resample
// by ratio would cause. WSOLA itself preserves pitch, but artifact severity
// grows with the same quantity, so the fitter uses it as the quality bound.
func SemitoneShift(ratio float64) float64 {
	if ratio <= 0 {
		return math.Inf(1)
	}
	return math.Abs(12 * math.Log2(ratio))
}

// Stretch time-stretches the clip to exactly targetSamples using WSOLA
// (waveform-similarity overlap-add), preserving pitch. The output length is
// sample-exact. Ratios outside [0.5, 2.0] are rejected; callers clamp or trim
// before reaching that range.
func Stretch(c *Clip, targetSamples int) (*Clip, error) {
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("stretch: %w", err)
	}
	if targetSamples <= 0 {
		return nil, fmt.Errorf("stretch: invalid target length %d", targetSamples)
	}
	if c.Len() == 0 {
		return NewSilence(targetSamples, c.SampleRate), nil
	}
	if c.Len() == targetSamples {
		return c.Clone(), nil
	}

	ratio := float64(c.Len()) / float64(targetSamples)
	if ratio < 0.5 || ratio > 2.0 {
		return nil, fmt.Errorf("stretch: ratio %.3f outside [0.5, 2.0]", ratio)
	}

	frame := windowSamples(c.SampleRate, stretchFrameMs)
	if frame > c.Len() {
		// Clip shorter than one analysis frame: linear resample is
		// indistinguishable at this size.
		return resampleLinear(c, targetSamples), nil
	}
	hop := frame / 2
	seek := windowSamples(c.SampleRate, stretchSeekMs)
	window := hannWindow(frame)

	out := make([]float64, targetSamples+frame)
	norm := make([]float64, targetSamples+frame)

	prevStart := -1
	for outPos := 0; outPos < targetSamples; outPos += hop {
		ideal := int(float64(outPos) * ratio)
		start := ideal
		if prevStart >= 0 {
			// The natural continuation of the previous frame is prevStart+hop;
			// search around the ideal position for the best waveform match.
			start = bestAlignment(c.Samples, ideal, prevStart+hop, frame, seek)
		}
		if start+frame > c.Len() {
			start = c.Len() - frame
		}
		if start < 0 {
			start = 0
		}
		for i := 0; i < frame && outPos+i < len(out); i++ {
			out[outPos+i] += c.Samples[start+i] * window[i]
			norm[outPos+i] += window[i]
		}
		prevStart = start
	}

	samples := make([]float64, targetSamples)
	for i := range samples {
		if norm[i] > 1e-9 {
			samples[i] = ClampSample(out[i] / norm[i])
		}
	}
	return &Clip{Samples: samples, SampleRate: c.SampleRate}, nil
}

// bestAlignment picks the frame start near ideal whose leading samples best
// correlate with the expected continuation at reference.
func bestAlignment(samples []float64, ideal, reference, frame, seek int) int {
	if reference < 0 || reference+frame > len(samples) {
		return ideal
	}
	lo := ideal - seek
	hi := ideal + seek
	if lo < 0 {
		lo = 0
	}
	if hi+frame > len(samples) {
		hi = len(samples) - frame
	}
	if hi < lo {
		return ideal
	}

	// Correlate over a quarter frame; enough to lock phase, cheap to scan.
	span := frame / 4
	if span < 1 {
		span = 1
	}
	best := lo
	bestScore := math.Inf(-1)
	for cand := lo; cand <= hi; cand++ {
		var score float64
		for i := 0; i < span; i++ {
			score += samples[cand+i] * samples[reference+i]
		}
		if score > bestScore {
			bestScore = score
			best = cand
		}
	}
	return best
}

// Resample converts the clip to a new sample rate with linear interpolation.
// Good enough for speech handed to the fitter; the final mix never resamples.
func Resample(c *Clip, sampleRate int) *Clip {
	if c == nil || c.SampleRate == sampleRate || c.Len() == 0 {
		return c
	}
	target := int(math.Round(float64(c.Len()) * float64(sampleRate) / float64(c.SampleRate)))
	if target < 1 {
		target = 1
	}
	out := resampleLinear(c, target)
	out.SampleRate = sampleRate
	return out
}

func resampleLinear(c *Clip, targetSamples int) *Clip {
	samples := make([]float64, targetSamples)
	if targetSamples == 1 {
		samples[0] = c.Samples[0]
		return &Clip{Samples: samples, SampleRate: c.SampleRate}
	}
	if c.Len() == 1 {
		for i := range samples {
			samples[i] = c.Samples[0]
		}
		return &Clip{Samples: samples, SampleRate: c.SampleRate}
	}
	step := float64(c.Len()-1) / float64(targetSamples-1)
	for i := range samples {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= c.Len()-1 {
			samples[i] = c.Samples[c.Len()-1]
			continue
		}
		frac := pos - float64(idx)
		samples[i] = c.Samples[idx]*(1-frac) + c.Samples[idx+1]*frac
	}
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
