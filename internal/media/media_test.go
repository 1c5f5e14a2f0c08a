package media

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func TestExtractAudioArgs(t *testing.T) {
	var gotName string
	var gotArgs []string

	tools := NewToolset("", "")
	tools.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := tools.ExtractAudio(context.Background(), "/media/movie.mp4", "/work/audio.wav"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if gotName != FFmpegCommand {
		t.Fatalf("binary = %q, want ffmpeg", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ac 2", "-ar 44100", "-c:a pcm_s16le", "-map 0:a:0"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if gotArgs[len(gotArgs)-1] != "/work/audio.wav" {
		t.Fatalf("destination not last arg: %v", gotArgs)
	}
}

func TestExtractAudioRequiresSource(t *testing.T) {
	tools := NewToolset("", "")
	if err := tools.ExtractAudio(context.Background(), "  ", "/work/audio.wav"); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestRemuxArgs(t *testing.T) {
	var gotArgs []string

	tools := NewToolset("ffmpeg-custom", "")
	tools.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "ffmpeg-custom" {
			t.Fatalf("binary = %q", name)
		}
		gotArgs = args
		return nil
	})

	if err := tools.Remux(context.Background(), "/media/movie.mp4", "/work/dub.wav", "/out/movie_dubbed_de.mp4"); err != nil {
		t.Fatalf("remux: %v", err)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-map 0:v:0", "-map 1:a:0", "-c:v copy", "-c:a aac", "-b:a 192k", "-shortest"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if !slices.Contains(gotArgs, "/work/dub.wav") {
		t.Fatalf("dub track missing from args: %v", gotArgs)
	}
}

func TestInspectParsesProbeOutput(t *testing.T) {
	tools := NewToolset("", "")
	tools.WithOutputRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != FFprobeCommand {
			t.Fatalf("binary = %q, want ffprobe", name)
		}
		return []byte(`{
            "streams": [
                {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080},
                {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "48000"}
            ],
            "format": {"filename": "movie.mp4", "nb_streams": 2, "duration": "3600.250000"}
        }`), nil
	})

	result, err := tools.Inspect(context.Background(), "/media/movie.mp4")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !result.HasVideo() || !result.HasAudio() {
		t.Fatalf("stream detection wrong: %+v", result.Streams)
	}
	seconds, err := result.DurationSeconds()
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	if seconds != 3600.25 {
		t.Fatalf("duration = %v, want 3600.25", seconds)
	}
}

func TestDurationMissing(t *testing.T) {
	tools := NewToolset("", "")
	tools.WithOutputRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte(`{"streams": [], "format": {}}`), nil
	})

	if _, err := tools.Duration(context.Background(), "/media/movie.mp4"); err == nil {
		t.Fatal("expected error when duration missing")
	}
}
