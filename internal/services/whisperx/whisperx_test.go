package whisperx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTranscribeBuildsExpectedCommand(t *testing.T) {
	outDir := t.TempDir()

	var gotName string
	var gotArgs []string
	svc := NewService(Config{Model: "medium", HFToken: "hf_abc", MaxSpeakers: 3})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return os.WriteFile(filepath.Join(outDir, "vocals.json"), []byte(`{"segments": []}`), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), "/work/stems/vocals.wav", outDir, "en", "cpu")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if gotName != UVXCommand {
		t.Fatalf("binary = %q, want uvx", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{
		"whisperx /work/stems/vocals.wav",
		"--model medium",
		"--diarize",
		"--hf_token hf_abc",
		"--max_speakers 3",
		"--language en",
		"--device cpu",
		"--compute_type float32",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if result.JSONPath != filepath.Join(outDir, "vocals.json") {
		t.Fatalf("json path = %s", result.JSONPath)
	}
}

func TestTranscribeAcceleratedDeviceSkipsComputeType(t *testing.T) {
	outDir := t.TempDir()

	var gotArgs []string
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return os.WriteFile(filepath.Join(outDir, "vocals.json"), []byte(`{"segments": []}`), 0o644)
	})

	if _, err := svc.Transcribe(context.Background(), "/work/stems/vocals.wav", outDir, "", "cuda"); err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--device cuda") {
		t.Fatalf("device missing: %s", joined)
	}
	if strings.Contains(joined, "--compute_type") {
		t.Fatalf("compute_type must only apply on cpu: %s", joined)
	}
	if strings.Contains(joined, "--language") {
		t.Fatalf("empty language must mean auto-detect: %s", joined)
	}
}

func TestTranscribeFailsWhenOutputMissing(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) error {
		return nil
	})

	if _, err := svc.Transcribe(context.Background(), "/work/vocals.wav", t.TempDir(), "", "cpu"); err == nil {
		t.Fatal("expected error when whisperx wrote no output")
	}
}

func TestLoadSegmentsFiltersInvalidSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	payload := `{
        "language": "en",
        "segments": [
            {"text": " Hello there. ", "start": 0.5, "end": 2.1, "speaker": "SPEAKER_00"},
            {"text": "   ", "start": 2.5, "end": 3.0, "speaker": "SPEAKER_00"},
            {"text": "Backwards span", "start": 5.0, "end": 4.0, "speaker": "SPEAKER_01"},
            {"text": "General Kenobi.", "start": 3.2, "end": 4.8, "speaker": "SPEAKER_01"}
        ]
    }`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write json: %v", err)
	}

	segments, err := LoadSegments(path)
	if err != nil {
		t.Fatalf("load segments: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(segments))
	}
	if segments[0].Text != "Hello there." || segments[0].Speaker != "SPEAKER_00" {
		t.Fatalf("first segment wrong: %+v", segments[0])
	}
	if segments[1].Speaker != "SPEAKER_01" {
		t.Fatalf("second segment wrong: %+v", segments[1])
	}

	lang, err := DetectedLanguage(path)
	if err != nil {
		t.Fatalf("detected language: %v", err)
	}
	if lang != "en" {
		t.Fatalf("language = %q, want en", lang)
	}
}
