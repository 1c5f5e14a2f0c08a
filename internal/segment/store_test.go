package segment

import (
	"errors"
	"testing"

	"redub/internal/audio"
	"redub/internal/services"
)

func TestAddRejectsInvalidSpan(t *testing.T) {
	st := NewStore()
	cases := []struct {
		name       string
		start, end float64
	}{
		{"inverted", 2.0, 1.0},
		{"zero length", 1.0, 1.0},
		{"negative start", -0.5, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := st.Add("SPEAKER_00", tc.start, tc.end, "x"); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAddRejectsSameSpeakerOverlap(t *testing.T) {
	st := NewStore()
	if _, err := st.Add("SPEAKER_00", 1.0, 3.0, "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Add("SPEAKER_00", 2.5, 4.0, "b"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected overlap rejection, got %v", err)
	}
	// Touching spans are fine: [1,3) then [3,4).
	if _, err := st.Add("SPEAKER_00", 3.0, 4.0, "c"); err != nil {
		t.Fatalf("adjacent span rejected: %v", err)
	}
	// Different speakers may overlap (diarization noise handled at mix time).
	if _, err := st.Add("SPEAKER_01", 2.5, 4.0, "d"); err != nil {
		t.Fatalf("cross-speaker overlap rejected: %v", err)
	}
}

func TestOrderedByStart(t *testing.T) {
	st := NewStore()
	for _, span := range [][2]float64{{5, 6}, {1, 2}, {3, 4}} {
		if _, err := st.Add("SPEAKER_00", span[0], span[1], ""); err != nil {
			t.Fatal(err)
		}
	}
	segs := st.OrderedByStart()
	if len(segs) != 3 {
		t.Fatalf("len = %d", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].Start {
			t.Fatal("segments out of order")
		}
	}

	// Snapshot stays valid while new segments arrive.
	if _, err := st.Add("SPEAKER_01", 0.0, 0.5, ""); err != nil {
		t.Fatal(err)
	}
	if len(segs) != 3 {
		t.Fatal("snapshot must not grow")
	}
	if st.Len() != 4 {
		t.Fatal("store must grow")
	}
}

func TestStageOrderEnforced(t *testing.T) {
	st := NewStore()
	seg, err := st.Add("SPEAKER_00", 0, 1, "hello")
	if err != nil {
		t.Fatal(err)
	}
	clip := audio.NewSilence(100, 22050)

	if err := st.SetSynthesized(seg.ID, clip); !errors.Is(err, services.ErrStaleState) {
		t.Fatalf("expected stale state before translation, got %v", err)
	}
	if err := st.SetFitted(seg.ID, clip, FitResult{}); !errors.Is(err, services.ErrStaleState) {
		t.Fatalf("expected stale state before synthesis, got %v", err)
	}

	if err := st.SetTranslation(seg.ID, "hola"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetSynthesized(seg.ID, clip); err != nil {
		t.Fatal(err)
	}
	if err := st.SetFitted(seg.ID, clip, FitResult{Strategy: FitExact}); err != nil {
		t.Fatal(err)
	}
	if seg.Fit.Strategy != FitExact {
		t.Fatal("fit result not recorded")
	}
}

func TestFailedSynthesisBypassesStageOrder(t *testing.T) {
	st := NewStore()
	seg, err := st.Add("SPEAKER_00", 0, 1, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.MarkSynthesisFailed(seg.ID); err != nil {
		t.Fatal(err)
	}
	// The fallback original-language clip is fitted without synthesized audio.
	if err := st.SetFitted(seg.ID, audio.NewSilence(10, 22050), FitResult{Strategy: FitExact}); err != nil {
		t.Fatalf("fallback fit rejected: %v", err)
	}
}

func TestUnknownSegmentErrors(t *testing.T) {
	st := NewStore()
	if err := st.SetTranslation(99, "x"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.Get(99); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSpeakersFirstSeenOrder(t *testing.T) {
	st := NewStore()
	st.Add("B", 1, 2, "")
	st.Add("A", 3, 4, "")
	st.Add("B", 5, 6, "")
	speakers := st.Speakers()
	if len(speakers) != 2 || speakers[0] != "B" || speakers[1] != "A" {
		t.Fatalf("speakers = %v", speakers)
	}
}

func TestNextOfSpeaker(t *testing.T) {
	st := NewStore()
	first, _ := st.Add("A", 1, 2, "")
	st.Add("B", 2, 3, "")
	second, _ := st.Add("A", 4, 5, "")

	if next := st.NextOfSpeaker(first); next == nil || next.ID != second.ID {
		t.Fatalf("next of first = %v", next)
	}
	if next := st.NextOfSpeaker(second); next != nil {
		t.Fatalf("expected nil after last segment, got %v", next)
	}
}
