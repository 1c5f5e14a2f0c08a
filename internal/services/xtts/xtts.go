// Package xtts wraps the Coqui TTS CLI to synthesize translated speech with
// XTTS v2 voice cloning from a speaker reference clip.
package xtts

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strings"

	"redub/internal/audio"
)

// Config captures runtime settings for synthesis.
type Config struct {
	// Binary is the tts executable. Defaults to "tts" on PATH.
	Binary string
	// ModelName selects the TTS model.
	ModelName string
}

// Synthesis constants.
const (
	DefaultBinary = "tts"
	// DefaultModelName is the multilingual XTTS v2 voice-cloning model.
	DefaultModelName = "tts_models/multilingual/multi-dataset/xtts_v2"

	// Synthetic reference parameters, used when no real speaker sample is
	// available. XTTS refuses to synthesize without a reference clip.
	referenceSampleRate = 22050
	referenceSeconds    = 3.0
	referenceFrequency  = 440.0
)

// Request describes one segment synthesis.
type Request struct {
	// Text is the translated text to speak.
	Text string
	// SpeakerWAV is the reference clip for voice cloning.
	SpeakerWAV string
	// Language is the XTTS language code (e.g. "de", "zh-cn").
	Language string
	// OutPath is where the synthesized WAV is written.
	OutPath string
}

// Service invokes the TTS CLI.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates an XTTS service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.ModelName) == "" {
		cfg.ModelName = DefaultModelName
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.ModelName
}

// Synthesize speaks the request text in the cloned voice on the given device
// and verifies the output file exists.
func (s *Service) Synthesize(ctx context.Context, req Request, device string) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("synthesize: text required")
	}
	if strings.TrimSpace(req.SpeakerWAV) == "" {
		return fmt.Errorf("synthesize: speaker reference required")
	}
	if strings.TrimSpace(req.Language) == "" {
		return fmt.Errorf("synthesize: language required")
	}

	args := s.buildArgs(req, device)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return fmt.Errorf("xtts: %w", err)
	}
	if _, err := os.Stat(req.OutPath); err != nil {
		return fmt.Errorf("xtts: expected output %s missing: %w", req.OutPath, err)
	}
	return nil
}

func (s *Service) buildArgs(req Request, device string) []string {
	args := []string{
		"--model_name", s.cfg.ModelName,
		"--text", req.Text,
		"--speaker_wav", req.SpeakerWAV,
		"--language_idx", req.Language,
		"--out_path", req.OutPath,
	}
	if device != "" {
		args = append(args, "--device", device)
	}
	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// EnsureSyntheticReference writes a sine-tone reference clip at path unless
// one already exists. It is the last-resort speaker reference: the clone
// sounds neutral but synthesis does not crash.
func EnsureSyntheticReference(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	n := audio.SamplesForDuration(referenceSeconds, referenceSampleRate)
	clip := audio.NewSilence(n, referenceSampleRate)
	for i := range clip.Samples {
		clip.Samples[i] = math.Sin(2 * math.Pi * referenceFrequency * float64(i) / referenceSampleRate)
	}
	if err := audio.WriteWAV(path, clip); err != nil {
		return fmt.Errorf("write synthetic reference: %w", err)
	}
	return nil
}
