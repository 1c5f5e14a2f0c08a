// Package demucs wraps the Demucs source-separation CLI to split extracted
// audio into a vocal stem and an instrumental bed.
package demucs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Config captures runtime settings for Demucs separation.
type Config struct {
	// Binary is the demucs executable. Defaults to "demucs" on PATH.
	Binary string
	// Model is the separation model name.
	Model string
	// LowMem reduces shifts and worker count to fit constrained machines.
	LowMem bool
}

// Separation constants.
const (
	DefaultBinary = "demucs"
	DefaultModel  = "htdemucs"

	// TwoStems forces a vocals / no_vocals split instead of the full
	// four-stem separation.
	TwoStems = "vocals"

	vocalsFile       = "vocals.wav"
	instrumentalFile = "no_vocals.wav"
)

// StemPaths locates the separated output files.
type StemPaths struct {
	Vocals       string
	Instrumental string
}

// Service invokes Demucs.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a Demucs service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = DefaultBinary
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Separate splits inputWav into vocal and instrumental stems under outDir on
// the given device. Demucs writes to outDir/<model>/<track>/, which Separate
// resolves and verifies before returning.
func (s *Service) Separate(ctx context.Context, inputWav, outDir, device string) (StemPaths, error) {
	if strings.TrimSpace(inputWav) == "" {
		return StemPaths{}, fmt.Errorf("separate: input path required")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return StemPaths{}, fmt.Errorf("separate: ensure output dir: %w", err)
	}

	args := s.buildArgs(inputWav, outDir, device)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return StemPaths{}, fmt.Errorf("demucs: %w", err)
	}

	paths := s.Stems(inputWav, outDir)
	for _, path := range []string{paths.Vocals, paths.Instrumental} {
		if _, err := os.Stat(path); err != nil {
			return StemPaths{}, fmt.Errorf("demucs: expected stem %s missing: %w", path, err)
		}
	}
	return paths, nil
}

// Stems returns the output paths Separate produces for inputWav under outDir
// without running anything, so callers can locate stems from an earlier run.
func (s *Service) Stems(inputWav, outDir string) StemPaths {
	track := strings.TrimSuffix(filepath.Base(inputWav), filepath.Ext(inputWav))
	stemDir := filepath.Join(outDir, s.cfg.Model, track)
	return StemPaths{
		Vocals:       filepath.Join(stemDir, vocalsFile),
		Instrumental: filepath.Join(stemDir, instrumentalFile),
	}
}

func (s *Service) buildArgs(inputWav, outDir, device string) []string {
	args := []string{
		"--name", s.cfg.Model,
		"--out", outDir,
		"--two-stems", TwoStems,
		"-d", device,
	}
	if s.cfg.LowMem {
		args = append(args, "--shifts", "0", "--jobs", "1")
	}
	return append(args, inputWav)
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
