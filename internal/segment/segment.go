package segment

import (
	"sync"

	"redub/internal/audio"
)

// FitStrategy names the timing adjustment the fitter applied to a segment.
type FitStrategy string

const (
	FitNone      FitStrategy = ""
	FitExact     FitStrategy = "exact"
	FitStretched FitStrategy = "stretched"
	FitBorrowed  FitStrategy = "borrowed"
	FitTrimmed   FitStrategy = "trimmed"
	FitPadded    FitStrategy = "padded"
)

// FitResult records how a segment's synthesized audio was reconciled with its
// slot, for diagnostics and the run report.
type FitResult struct {
	Strategy FitStrategy
	// Ratio is synthesized duration over slot duration before fitting.
	Ratio float64
	// BorrowedSeconds is slot time taken from the gap before the speaker's
	// next segment.
	BorrowedSeconds float64
	// TrimmedSeconds is audio dropped at the end of the clip.
	TrimmedSeconds float64
	// Lossy marks fits that degraded quality beyond tolerance: speech cut
	// outside a silence boundary, a stretch past the tolerance band, or a
	// cap during overlap resolution.
	Lossy bool
}

// Segment is one diarized span of speech and everything later stages attach
// to it. Field writes are serialized by the owning Store; the mutex guards a
// single segment so parallel workers on different segments never contend.
type Segment struct {
	ID      int64
	Speaker string
	// Start and End are source-timeline positions in seconds.
	Start float64
	End   float64

	SourceText     string
	TranslatedText string

	Synthesized *audio.Clip
	Fitted      *audio.Clip

	Fit FitResult
	// SynthesisFailed marks segments whose synthesis exhausted its fallback;
	// downstream stages reuse the original-language audio for the slot.
	SynthesisFailed bool
	// Shifted is the forward shift, in seconds, applied during overlap
	// resolution. Placement position is Start+Shifted.
	Shifted float64

	mu sync.Mutex
}

// SlotSeconds returns the allotted duration.
func (s *Segment) SlotSeconds() float64 {
	return s.End - s.Start
}

// Lock serializes writes to this segment's fields.
func (s *Segment) Lock() { s.mu.Lock() }

// Unlock releases the segment lock.
func (s *Segment) Unlock() { s.mu.Unlock() }
