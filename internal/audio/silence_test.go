package audio

import (
	"path/filepath"
	"testing"
)

func withSilence(c *Clip, leadSec, tailSec float64) *Clip {
	lead := NewSilence(SamplesForDuration(leadSec, c.SampleRate), c.SampleRate)
	tail := NewSilence(SamplesForDuration(tailSec, c.SampleRate), c.SampleRate)
	samples := make([]float64, 0, lead.Len()+c.Len()+tail.Len())
	samples = append(samples, lead.Samples...)
	samples = append(samples, c.Samples...)
	samples = append(samples, tail.Samples...)
	return &Clip{Samples: samples, SampleRate: c.SampleRate}
}

func TestTrailingAndLeadingSilence(t *testing.T) {
	c := withSilence(sine(440, 1.0, 8000), 0.2, 0.5)

	tail := TrailingSilenceSamples(c)
	wantTail := SamplesForDuration(0.5, 8000)
	if diff := tail - wantTail; diff < -400 || diff > 400 {
		t.Errorf("trailing silence = %d samples, want about %d", tail, wantTail)
	}

	lead := LeadingSilenceSamples(c)
	wantLead := SamplesForDuration(0.2, 8000)
	if diff := lead - wantLead; diff < -400 || diff > 400 {
		t.Errorf("leading silence = %d samples, want about %d", lead, wantLead)
	}
}

func TestSilenceOnPureTone(t *testing.T) {
	c := sine(440, 1.0, 8000)
	if got := TrailingSilenceSamples(c); got != 0 {
		t.Errorf("tone should have no trailing silence, got %d", got)
	}
	if got := LeadingSilenceSamples(c); got != 0 {
		t.Errorf("tone should have no leading silence, got %d", got)
	}
}

func TestFindCutBoundary(t *testing.T) {
	// speech | 100ms pause | speech
	sr := 8000
	part1 := sine(440, 0.5, sr)
	pause := NewSilence(SamplesForDuration(0.1, sr), sr)
	part2 := sine(440, 0.5, sr)
	samples := append(append(append([]float64{}, part1.Samples...), pause.Samples...), part2.Samples...)
	c := &Clip{Samples: samples, SampleRate: sr}

	// Limit lands inside the second speech burst; the scan should back up
	// into the pause.
	limit := part1.Len() + pause.Len() + SamplesForDuration(0.2, sr)
	cut, ok := FindCutBoundary(c, limit, SamplesForDuration(0.4, sr))
	if !ok {
		t.Fatal("expected a silence boundary")
	}
	if cut <= part1.Len() || cut > part1.Len()+pause.Len() {
		t.Errorf("cut at %d, want inside pause (%d, %d]", cut, part1.Len(), part1.Len()+pause.Len())
	}

	// No silence inside the search span: cut falls back to the limit.
	cut, ok = FindCutBoundary(c, SamplesForDuration(0.3, sr), SamplesForDuration(0.1, sr))
	if ok {
		t.Fatal("expected no boundary inside continuous tone")
	}
	if cut != SamplesForDuration(0.3, sr) {
		t.Errorf("fallback cut = %d", cut)
	}
}

func TestWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	c := sine(440, 0.25, 22050)

	if err := WriteWAV(path, c); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	back, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if back.SampleRate != c.SampleRate {
		t.Errorf("sample rate = %d", back.SampleRate)
	}
	if back.Len() != c.Len() {
		t.Errorf("length = %d, want %d", back.Len(), c.Len())
	}
	// 16-bit quantization bounds the error.
	for i := range back.Samples {
		diff := back.Samples[i] - c.Samples[i]
		if diff < -0.001 || diff > 0.001 {
			t.Fatalf("sample %d drifted by %g", i, diff)
		}
	}
}
