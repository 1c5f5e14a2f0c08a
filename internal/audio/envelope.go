package audio

// RMSEnvelope computes the clip's RMS energy over fixed windows. The result
// has ceil(len/window) entries; the final partial window is measured as-is.
func RMSEnvelope(c *Clip, windowMs int) []float64 {
	if c.Len() == 0 {
		return nil
	}
	window := windowSamples(c.SampleRate, windowMs)
	n := (c.Len() + window - 1) / window
	env := make([]float64, 0, n)
	for start := 0; start < c.Len(); start += window {
		end := start + window
		if end > c.Len() {
			end = c.Len()
		}
		env = append(env, rms(c.Samples[start:end]))
	}
	return env
}

// SmoothGate converts an energy envelope into a per-window gain ramp: gain
// moves toward floor while energy exceeds the threshold and back toward 1
// otherwise. attackWindows and releaseWindows set how many windows a full
// transition takes, keeping gain changes inaudible.
func SmoothGate(envelope []float64, threshold, floor float64, attackWindows, releaseWindows int) []float64 {
	if attackWindows < 1 {
		attackWindows = 1
	}
	if releaseWindows < 1 {
		releaseWindows = 1
	}
	attackStep := (1 - floor) / float64(attackWindows)
	releaseStep := (1 - floor) / float64(releaseWindows)

	gains := make([]float64, len(envelope))
	gain := 1.0
	for i, e := range envelope {
		if e >= threshold {
			gain -= attackStep
			if gain < floor {
				gain = floor
			}
		} else {
			gain += releaseStep
			if gain > 1 {
				gain = 1
			}
		}
		gains[i] = gain
	}
	return gains
}
