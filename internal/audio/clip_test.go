package audio

import (
	"math"
	"testing"
	"time"
)

func sine(freq float64, seconds float64, sampleRate int) *Clip {
	n := SamplesForDuration(seconds, sampleRate)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return &Clip{Samples: samples, SampleRate: sampleRate}
}

func TestClipDuration(t *testing.T) {
	c := NewSilence(44100, 44100)
	if c.Duration() != time.Second {
		t.Errorf("duration = %v, want 1s", c.Duration())
	}
	if c.Seconds() != 1.0 {
		t.Errorf("seconds = %g, want 1", c.Seconds())
	}
}

func TestSamplesForDuration(t *testing.T) {
	if got := SamplesForDuration(2.5, 44100); got != 110250 {
		t.Errorf("SamplesForDuration(2.5s) = %d", got)
	}
	if got := SamplesForDuration(-1, 44100); got != 0 {
		t.Errorf("negative duration should yield 0, got %d", got)
	}
}

func TestPadTo(t *testing.T) {
	c := sine(440, 0.1, 8000)
	padded := c.PadTo(c.Len() + 100)
	if padded.Len() != c.Len()+100 {
		t.Fatalf("padded length = %d", padded.Len())
	}
	for _, s := range padded.Samples[c.Len():] {
		if s != 0 {
			t.Fatal("padding must be silence")
		}
	}
	// No-op when already long enough.
	if again := padded.PadTo(10); again.Len() != padded.Len() {
		t.Fatal("PadTo must not shrink")
	}
}

func TestPadAround(t *testing.T) {
	c := sine(440, 0.1, 8000)
	total := c.Len() + 200
	out := c.PadAround(80, total)
	if out.Len() != total {
		t.Fatalf("length = %d, want %d", out.Len(), total)
	}
	for i := 0; i < 80; i++ {
		if out.Samples[i] != 0 {
			t.Fatal("lead padding must be silence")
		}
	}
	if out.Samples[80] != c.Samples[0] {
		t.Fatal("payload misplaced")
	}
	// Oversized lead gets clamped, not dropped.
	out = c.PadAround(10_000, total)
	if out.Len() != total {
		t.Fatalf("length with clamped lead = %d", out.Len())
	}
	if out.Samples[total-1] != c.Samples[c.Len()-1] {
		t.Fatal("payload must end at buffer end when lead clamps")
	}
}

func TestGainAndDB(t *testing.T) {
	if g := DBToLinear(0); math.Abs(g-1) > 1e-12 {
		t.Errorf("0 dB = %g", g)
	}
	if g := DBToLinear(-12); math.Abs(g-0.2511886) > 1e-4 {
		t.Errorf("-12 dB = %g", g)
	}
	c := &Clip{Samples: []float64{0.5, -0.5}, SampleRate: 8000}
	half := c.Gain(0.5)
	if half.Samples[0] != 0.25 || half.Samples[1] != -0.25 {
		t.Errorf("gain applied wrong: %v", half.Samples)
	}
	loud := c.Gain(10)
	if loud.Samples[0] != 1 || loud.Samples[1] != -1 {
		t.Errorf("gain must clamp: %v", loud.Samples)
	}
}
