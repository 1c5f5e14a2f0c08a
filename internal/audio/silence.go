package audio

import "math"

// silenceThreshold is the RMS level below which a window counts as silence.
// Matches roughly -40 dBFS, low enough to survive synthesis noise floors.
const silenceThreshold = 0.01

// boundaryWindowMs is the analysis window used when scanning for cut points.
const boundaryWindowMs = 20

// TrailingSilenceSamples returns how many samples at the end of the clip fall
// below the silence threshold.
func TrailingSilenceSamples(c *Clip) int {
	if c.Len() == 0 {
		return 0
	}
	window := windowSamples(c.SampleRate, boundaryWindowMs)
	count := 0
	for end := c.Len(); end > 0; end -= window {
		start := end - window
		if start < 0 {
			start = 0
		}
		if rms(c.Samples[start:end]) >= silenceThreshold {
			break
		}
		count += end - start
	}
	return count
}

// LeadingSilenceSamples returns how many samples at the start of the clip
// fall below the silence threshold.
func LeadingSilenceSamples(c *Clip) int {
	if c.Len() == 0 {
		return 0
	}
	window := windowSamples(c.SampleRate, boundaryWindowMs)
	count := 0
	for start := 0; start < c.Len(); start += window {
		end := start + window
		if end > c.Len() {
			end = c.Len()
		}
		if rms(c.Samples[start:end]) >= silenceThreshold {
			break
		}
		count += end - start
	}
	return count
}

// FindCutBoundary scans backward from limit for the nearest low-energy window
// and returns the sample index to cut at. It returns limit and false when no
// silence exists in the search span, meaning a cut there would land mid-word.
// searchSpan bounds how far back the scan may wander from limit.
func FindCutBoundary(c *Clip, limit, searchSpan int) (int, bool) {
	if limit > c.Len() {
		limit = c.Len()
	}
	if limit <= 0 {
		return 0, false
	}
	window := windowSamples(c.SampleRate, boundaryWindowMs)
	lowest := limit - searchSpan
	if lowest < 0 {
		lowest = 0
	}
	for end := limit; end-window >= lowest; end -= window {
		if rms(c.Samples[end-window:end]) < silenceThreshold {
			return end, true
		}
	}
	return limit, false
}

func windowSamples(sampleRate, ms int) int {
	w := sampleRate * ms / 1000
	if w < 1 {
		w = 1
	}
	return w
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}
