package audio

import (
	"math"
	"testing"
)

func TestStretchExactLength(t *testing.T) {
	c := sine(220, 2.5, 22050)
	for _, target := range []int{
		SamplesForDuration(2.0, 22050),
		SamplesForDuration(3.0, 22050),
		c.Len() + 1,
		c.Len() - 1,
	} {
		out, err := Stretch(c, target)
		if err != nil {
			t.Fatalf("Stretch to %d: %v", target, err)
		}
		if out.Len() != target {
			t.Fatalf("stretched length = %d, want %d", out.Len(), target)
		}
	}
}

func TestStretchIdentity(t *testing.T) {
	c := sine(220, 1.0, 22050)
	out, err := Stretch(c, c.Len())
	if err != nil {
		t.Fatal(err)
	}
	for i := range out.Samples {
		if out.Samples[i] != c.Samples[i] {
			t.Fatal("identity stretch must be byte-identical")
		}
	}
}

func TestStretchDeterministic(t *testing.T) {
	c := sine(330, 1.5, 22050)
	target := SamplesForDuration(1.2, 22050)
	a, err := Stretch(c, target)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Stretch(c, target)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatal("stretch must be deterministic")
		}
	}
}

func TestStretchPreservesEnergy(t *testing.T) {
	c := sine(220, 2.0, 22050)
	out, err := Stretch(c, SamplesForDuration(1.7, 22050))
	if err != nil {
		t.Fatal(err)
	}
	inRMS := rms(c.Samples)
	outRMS := rms(out.Samples)
	if math.Abs(inRMS-outRMS)/inRMS > 0.25 {
		t.Fatalf("energy drifted: in %g out %g", inRMS, outRMS)
	}
}

func TestStretchRejectsExtremeRatio(t *testing.T) {
	c := sine(220, 1.0, 22050)
	if _, err := Stretch(c, c.Len()*3); err == nil {
		t.Fatal("expected rejection for ratio below 0.5")
	}
	if _, err := Stretch(c, c.Len()/3); err == nil {
		t.Fatal("expected rejection for ratio above 2.0")
	}
}

func TestStretchEmptyClip(t *testing.T) {
	c := &Clip{SampleRate: 22050}
	out, err := Stretch(c, 100)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 100 {
		t.Fatalf("length = %d", out.Len())
	}
}

func TestResampleChangesRate(t *testing.T) {
	in := sine(440, 1.0, 24000)
	out := Resample(in, 44100)
	if out.SampleRate != 44100 {
		t.Fatalf("sample rate = %d", out.SampleRate)
	}
	if got := out.Len(); got != 44100 {
		t.Fatalf("length = %d, want 44100", got)
	}
	if sec := out.Seconds(); math.Abs(sec-1.0) > 1e-3 {
		t.Fatalf("duration = %v, want 1s", sec)
	}
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := sine(440, 0.5, 8000)
	if out := Resample(in, 8000); out != in {
		t.Fatal("same-rate resample must return the input clip")
	}
}

func TestSemitoneShift(t *testing.T) {
	if got := SemitoneShift(1.0); got != 0 {
		t.Errorf("SemitoneShift(1) = %g", got)
	}
	// A 2x ratio is one octave.
	if got := SemitoneShift(2.0); math.Abs(got-12) > 1e-9 {
		t.Errorf("SemitoneShift(2) = %g", got)
	}
	if got := SemitoneShift(0.5); math.Abs(got-12) > 1e-9 {
		t.Errorf("SemitoneShift(0.5) = %g", got)
	}
	if !math.IsInf(SemitoneShift(0), 1) {
		t.Error("SemitoneShift(0) must be +Inf")
	}
}
