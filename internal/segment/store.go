package segment

import (
	"fmt"
	"sort"
	"sync"

	"redub/internal/audio"
	"redub/internal/services"
)

// Store owns a run's segments for their whole lifetime. Spans are validated
// on entry; later stages fill fields through the stage-ordered setters. The
// store never reorders or drops segments once accepted.
type Store struct {
	mu       sync.RWMutex
	segments []*Segment
	nextID   int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Add validates and inserts a new segment, returning it with its assigned ID.
// It fails with services.ErrValidation when the span is inverted or overlaps
// an existing segment of the same speaker.
func (st *Store) Add(speaker string, start, end float64, sourceText string) (*Segment, error) {
	if start < 0 || end <= start {
		return nil, services.Wrap(services.ErrValidation, "segments", "add",
			fmt.Sprintf("invalid span [%.3f, %.3f)", start, end), nil)
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for _, existing := range st.segments {
		if existing.Speaker != speaker {
			continue
		}
		if start < existing.End && existing.Start < end {
			return nil, services.Wrap(services.ErrValidation, "segments", "add",
				fmt.Sprintf("span [%.3f, %.3f) overlaps segment %d of speaker %s",
					start, end, existing.ID, speaker), nil)
		}
	}

	seg := &Segment{
		ID:         st.nextID,
		Speaker:    speaker,
		Start:      start,
		End:        end,
		SourceText: sourceText,
	}
	st.nextID++

	// Keep the list sorted by start time; ties break by ID for determinism.
	idx := sort.Search(len(st.segments), func(i int) bool {
		if st.segments[i].Start != seg.Start {
			return st.segments[i].Start > seg.Start
		}
		return st.segments[i].ID > seg.ID
	})
	st.segments = append(st.segments, nil)
	copy(st.segments[idx+1:], st.segments[idx:])
	st.segments[idx] = seg

	return seg, nil
}

// Get returns the segment with the given ID.
func (st *Store) Get(id int64) (*Segment, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, seg := range st.segments {
		if seg.ID == id {
			return seg, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "segments", "get",
		fmt.Sprintf("unknown segment %d", id), nil)
}

// SetTranslation records the translated text for a segment.
func (st *Store) SetTranslation(id int64, text string) error {
	seg, err := st.Get(id)
	if err != nil {
		return err
	}
	seg.Lock()
	defer seg.Unlock()
	seg.TranslatedText = text
	return nil
}

// SetSynthesized attaches the raw synthesized clip. It requires translation
// to have completed first.
func (st *Store) SetSynthesized(id int64, clip *audio.Clip) error {
	seg, err := st.Get(id)
	if err != nil {
		return err
	}
	seg.Lock()
	defer seg.Unlock()
	if seg.TranslatedText == "" && !seg.SynthesisFailed {
		return services.Wrap(services.ErrStaleState, "segments", "set synthesized",
			fmt.Sprintf("segment %d has no translation yet", id), nil)
	}
	seg.Synthesized = clip
	return nil
}

// SetFitted attaches the temporally fitted clip plus the fit diagnostics. It
// requires synthesized audio to exist, unless synthesis failed for the
// segment (the fitter then fits the original-language fallback clip).
func (st *Store) SetFitted(id int64, clip *audio.Clip, result FitResult) error {
	seg, err := st.Get(id)
	if err != nil {
		return err
	}
	seg.Lock()
	defer seg.Unlock()
	if seg.Synthesized == nil && !seg.SynthesisFailed {
		return services.Wrap(services.ErrStaleState, "segments", "set fitted",
			fmt.Sprintf("segment %d has no synthesized audio yet", id), nil)
	}
	seg.Fitted = clip
	seg.Fit = result
	return nil
}

// MarkSynthesisFailed flags a segment whose synthesis exhausted its fallback
// path.
func (st *Store) MarkSynthesisFailed(id int64) error {
	seg, err := st.Get(id)
	if err != nil {
		return err
	}
	seg.Lock()
	defer seg.Unlock()
	seg.SynthesisFailed = true
	return nil
}

// OrderedByStart returns a snapshot of the segments sorted by start time.
// The slice is safe to iterate (and re-iterate) while later stages mutate
// segment fields; only membership and order are frozen.
func (st *Store) OrderedByStart() []*Segment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Segment, len(st.segments))
	copy(out, st.segments)
	return out
}

// BySpeaker returns the speaker's segments in start order.
func (st *Store) BySpeaker(speaker string) []*Segment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []*Segment
	for _, seg := range st.segments {
		if seg.Speaker == speaker {
			out = append(out, seg)
		}
	}
	return out
}

// Speakers returns the distinct speaker labels in first-appearance order.
func (st *Store) Speakers() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, seg := range st.segments {
		if _, ok := seen[seg.Speaker]; ok {
			continue
		}
		seen[seg.Speaker] = struct{}{}
		out = append(out, seg.Speaker)
	}
	return out
}

// Len returns the number of accepted segments.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.segments)
}

// NextOfSpeaker returns the same speaker's next segment after seg in start
// order, or nil when seg is the speaker's last.
func (st *Store) NextOfSpeaker(seg *Segment) *Segment {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, candidate := range st.segments {
		if candidate.Speaker != seg.Speaker {
			continue
		}
		if candidate.Start > seg.Start || (candidate.Start == seg.Start && candidate.ID > seg.ID) {
			return candidate
		}
	}
	return nil
}
