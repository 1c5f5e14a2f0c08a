package voices

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"redub/internal/audio"
	"redub/internal/logging"
	"redub/internal/segment"
	"redub/internal/services"
)

// maxReferenceSeconds caps extracted cloning references; XTTS gains nothing
// from longer samples and conditioning cost grows with length.
const maxReferenceSeconds = 12.0

// Options configures a Registry.
type Options struct {
	// Dir is where chosen reference snippets are persisted (the run work
	// directory's voices/ area).
	Dir string
	// ExplicitReference is the run-level --speaker-wav path; honored only
	// for single-speaker runs.
	ExplicitReference string
	// DefaultVoices is the built-in voice bank handed out by index.
	DefaultVoices []string
	// MinReferenceSeconds is the shortest segment usable for extraction.
	MinReferenceSeconds float64
	SampleRate          int
	Language            string
	Logger              *slog.Logger
}

// Registry lazily creates one immutable voice profile per speaker and returns
// the same profile on every later call.
type Registry struct {
	mu       sync.Mutex
	opts     Options
	store    *segment.Store
	vocals   *audio.Clip
	profiles map[string]*Profile
	assigned int
	logger   *slog.Logger
}

// NewRegistry builds a registry over the diarized segment store and the
// separated vocal track (used for reference extraction).
func NewRegistry(opts Options, store *segment.Store, vocals *audio.Clip) *Registry {
	return &Registry{
		opts:     opts,
		store:    store,
		vocals:   vocals,
		profiles: make(map[string]*Profile),
		logger:   logging.NewComponentLogger(opts.Logger, "voice-registry"),
	}
}

// Resolve returns the speaker's profile, creating it on first use. Creation
// priority: the run-level reference (single-speaker runs only), then a
// reference extracted from the speaker's longest clean segment, then a
// default voice from the bank. It fails with a configuration error only when
// none of those paths produce a voice.
func (r *Registry) Resolve(speaker string) (*Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile, ok := r.profiles[speaker]; ok {
		return profile, nil
	}

	profile, err := r.create(speaker)
	if err != nil {
		return nil, err
	}
	r.profiles[speaker] = profile
	return profile, nil
}

func (r *Registry) create(speaker string) (*Profile, error) {
	if r.opts.ExplicitReference != "" && len(r.store.Speakers()) == 1 {
		if _, err := os.Stat(r.opts.ExplicitReference); err == nil {
			r.logger.Info("using run-level reference audio",
				logging.String(logging.FieldSpeaker, speaker),
				logging.String("reference", r.opts.ExplicitReference),
			)
			return &Profile{
				Speaker:       speaker,
				ReferencePath: r.opts.ExplicitReference,
				SampleRate:    r.opts.SampleRate,
				Language:      r.opts.Language,
			}, nil
		}
		r.logger.Warn("run-level reference audio missing, falling back",
			logging.String("reference", r.opts.ExplicitReference),
			logging.String(logging.FieldEventType, "voice_reference_missing"),
			logging.String(logging.FieldImpact, "speaker voice will be extracted or defaulted"),
		)
	}

	if path, ok := r.extractReference(speaker); ok {
		return &Profile{
			Speaker:       speaker,
			ReferencePath: path,
			SampleRate:    r.opts.SampleRate,
			Language:      r.opts.Language,
		}, nil
	}

	if len(r.opts.DefaultVoices) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "voices", "resolve",
			fmt.Sprintf("no reference extractable for speaker %s and no default voices configured", speaker), nil)
	}
	voice := r.opts.DefaultVoices[r.assigned%len(r.opts.DefaultVoices)]
	if r.assigned >= len(r.opts.DefaultVoices) {
		r.logger.Warn("default voice bank exhausted, reusing voices",
			logging.Int("bank_size", len(r.opts.DefaultVoices)),
			logging.String(logging.FieldEventType, "voice_bank_exhausted"),
			logging.String(logging.FieldImpact, "two speakers will share a default voice"),
		)
	}
	r.assigned++
	r.logger.Info("assigned default voice",
		logging.String(logging.FieldSpeaker, speaker),
		logging.String("voice", voice),
	)
	return &Profile{
		Speaker:      speaker,
		DefaultVoice: voice,
		SampleRate:   r.opts.SampleRate,
		Language:     r.opts.Language,
	}, nil
}

// extractReference picks the speaker's longest clean segment (long enough,
// and free of cross-speaker overlap which indicates diarization bleed) and
// persists that span of the vocal track as the cloning reference.
func (r *Registry) extractReference(speaker string) (string, bool) {
	if r.vocals == nil || r.vocals.Len() == 0 || r.opts.Dir == "" {
		return "", false
	}

	var best *segment.Segment
	for _, seg := range r.store.BySpeaker(speaker) {
		if seg.SlotSeconds() < r.opts.MinReferenceSeconds {
			continue
		}
		if r.overlapsOtherSpeaker(seg) {
			continue
		}
		if best == nil || seg.SlotSeconds() > best.SlotSeconds() {
			best = seg
		}
	}
	if best == nil {
		return "", false
	}

	start := audio.SamplesForDuration(best.Start, r.vocals.SampleRate)
	length := audio.SamplesForDuration(best.SlotSeconds(), r.vocals.SampleRate)
	if limit := audio.SamplesForDuration(maxReferenceSeconds, r.vocals.SampleRate); length > limit {
		length = limit
	}
	snippet := r.vocals.Slice(start, start+length)
	if snippet.Len() == 0 {
		return "", false
	}

	if err := os.MkdirAll(r.opts.Dir, 0o755); err != nil {
		r.logger.Warn("cannot create voices directory", logging.Error(err))
		return "", false
	}
	path := filepath.Join(r.opts.Dir, fmt.Sprintf("%s.wav", speaker))
	if err := audio.WriteWAV(path, snippet); err != nil {
		r.logger.Warn("failed to persist reference snippet",
			logging.String(logging.FieldSpeaker, speaker),
			logging.Error(err),
		)
		return "", false
	}

	r.logger.Info("extracted cloning reference",
		logging.String(logging.FieldSpeaker, speaker),
		logging.Int64(logging.FieldSegmentID, best.ID),
		logging.Float64("seconds", snippet.Seconds()),
	)
	return path, true
}

func (r *Registry) overlapsOtherSpeaker(seg *segment.Segment) bool {
	for _, other := range r.store.OrderedByStart() {
		if other.Speaker == seg.Speaker {
			continue
		}
		if seg.Start < other.End && other.Start < seg.End {
			return true
		}
	}
	return false
}
