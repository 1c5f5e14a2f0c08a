package services_test

import (
	"context"
	"testing"

	"redub/internal/services"
)

func TestContextRoundTrips(t *testing.T) {
	ctx := context.Background()

	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("unexpected run id on empty context")
	}

	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "synthesizing")
	ctx = services.WithSegmentID(ctx, 7)
	ctx = services.WithSpeaker(ctx, "SPEAKER_01")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("run id round trip failed: %q %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "synthesizing" {
		t.Fatalf("stage round trip failed: %q %v", stage, ok)
	}
	if id, ok := services.SegmentIDFromContext(ctx); !ok || id != 7 {
		t.Fatalf("segment id round trip failed: %d %v", id, ok)
	}
	if speaker, ok := services.SpeakerFromContext(ctx); !ok || speaker != "SPEAKER_01" {
		t.Fatalf("speaker round trip failed: %q %v", speaker, ok)
	}
}

func TestEmptyValuesIgnored(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("empty run id should not be stored")
	}
	ctx = services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
}
