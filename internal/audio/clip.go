package audio

import (
	"fmt"
	"math"
	"time"
)

// Clip is a mono PCM buffer. All pipeline audio is carried as mono float64
// samples in [-1, 1]; WAV I/O downmixes on read and the remux step encodes
// the final track.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// NewSilence returns a clip of n zero samples.
func NewSilence(n, sampleRate int) *Clip {
	if n < 0 {
		n = 0
	}
	return &Clip{Samples: make([]float64, n), SampleRate: sampleRate}
}

// Duration returns the clip length as a time.Duration.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Seconds returns the clip length in seconds.
func (c *Clip) Seconds() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Len returns the sample count.
func (c *Clip) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Samples)
}

// Clone returns a deep copy.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	samples := make([]float64, len(c.Samples))
	copy(samples, c.Samples)
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

// Slice returns a view-copy of samples [from, to).
func (c *Clip) Slice(from, to int) *Clip {
	if from < 0 {
		from = 0
	}
	if to > len(c.Samples) {
		to = len(c.Samples)
	}
	if from >= to {
		return &Clip{SampleRate: c.SampleRate}
	}
	samples := make([]float64, to-from)
	copy(samples, c.Samples[from:to])
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

// PadTo extends the clip with trailing silence to n samples. A clip already
// at or beyond n is returned unchanged.
func (c *Clip) PadTo(n int) *Clip {
	if len(c.Samples) >= n {
		return c
	}
	samples := make([]float64, n)
	copy(samples, c.Samples)
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

// PadAround places the clip inside a buffer of n samples with lead zero
// samples before it, distributing the remainder after. lead is clamped so the
// payload always fits.
func (c *Clip) PadAround(lead, n int) *Clip {
	if n <= len(c.Samples) {
		return c.Slice(0, n)
	}
	if lead < 0 {
		lead = 0
	}
	if lead > n-len(c.Samples) {
		lead = n - len(c.Samples)
	}
	samples := make([]float64, n)
	copy(samples[lead:], c.Samples)
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

// SamplesForDuration converts a duration in seconds to a sample count at the
// clip's rate, rounding to nearest.
func SamplesForDuration(seconds float64, sampleRate int) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Round(seconds * float64(sampleRate)))
}

// Gain returns a copy scaled by the linear factor g, clamped to [-1, 1].
func (c *Clip) Gain(g float64) *Clip {
	out := c.Clone()
	for i, s := range out.Samples {
		out.Samples[i] = ClampSample(s * g)
	}
	return out
}

// DBToLinear converts decibels to a linear gain factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// ClampSample limits a sample to [-1, 1].
func ClampSample(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

func (c *Clip) validate() error {
	if c == nil {
		return fmt.Errorf("nil clip")
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	return nil
}
