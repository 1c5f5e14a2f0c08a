package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	stageKey     contextKey = "stage"
	segmentIDKey contextKey = "segment_id"
	speakerKey   contextKey = "speaker"
)

// WithRunID annotates context with the pipeline run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSegmentID annotates context with the segment identifier.
func WithSegmentID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, segmentIDKey, id)
}

// SegmentIDFromContext extracts the segment identifier if present.
func SegmentIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(segmentIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithSpeaker annotates context with the diarized speaker label.
func WithSpeaker(ctx context.Context, speaker string) context.Context {
	if speaker == "" {
		return ctx
	}
	return context.WithValue(ctx, speakerKey, speaker)
}

// SpeakerFromContext returns the speaker label if present.
func SpeakerFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(speakerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
