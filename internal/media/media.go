// Package media wraps the ffmpeg and ffprobe binaries for audio extraction,
// container inspection, and final remuxing.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	// FFmpegCommand is the default ffmpeg binary name.
	FFmpegCommand = "ffmpeg"
	// FFprobeCommand is the default ffprobe binary name.
	FFprobeCommand = "ffprobe"

	// PipelineSampleRate is the sample rate all pipeline audio is carried at.
	PipelineSampleRate = 44100
)

// Toolset bundles the ffmpeg binaries behind injectable runners so stages can
// be tested without the tools installed.
type Toolset struct {
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner func(ctx context.Context, name string, args ...string) error
	outputRunner  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewToolset creates a toolset. Empty binary names fall back to the commands
// on PATH.
func NewToolset(ffmpegBinary, ffprobeBinary string) *Toolset {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = FFprobeCommand
	}
	return &Toolset{ffmpegBinary: ffmpegBinary, ffprobeBinary: ffprobeBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (t *Toolset) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	t.commandRunner = runner
}

// WithOutputRunner sets a custom output-capturing runner (for testing).
func (t *Toolset) WithOutputRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	t.outputRunner = runner
}

func (t *Toolset) run(ctx context.Context, name string, args ...string) error {
	if t.commandRunner != nil {
		return t.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (t *Toolset) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if t.outputRunner != nil {
		return t.outputRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return output, nil
}

// ExtractAudio pulls the first audio stream from source into a stereo WAV at
// the pipeline sample rate.
func (t *Toolset) ExtractAudio(ctx context.Context, source, dest string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("extract audio: source path required")
	}
	args := buildExtractArgs(source, dest)
	if err := t.run(ctx, t.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg extract: %w", err)
	}
	return nil
}

func buildExtractArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "2",
		"-ar", fmt.Sprintf("%d", PipelineSampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// Remux writes the final output: video and metadata copied from the source,
// the dubbed track encoded as AAC in place of the original audio.
func (t *Toolset) Remux(ctx context.Context, source, dubTrack, dest string) error {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dubTrack) == "" {
		return fmt.Errorf("remux: source and dub track paths required")
	}
	args := buildRemuxArgs(source, dubTrack, dest)
	if err := t.run(ctx, t.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg remux: %w", err)
	}
	return nil
}

func buildRemuxArgs(source, dubTrack, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-i", dubTrack,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		dest,
	}
}
