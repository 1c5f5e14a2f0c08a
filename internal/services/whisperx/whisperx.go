// Package whisperx runs WhisperX transcription with speaker diarization over
// the separated vocal stem.
package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the Whisper model to load (e.g. "large-v3").
	Model string
	// HFToken is the Hugging Face token required by the pyannote diarization
	// models.
	HFToken string
	// MaxSpeakers caps the diarization speaker count. Zero leaves it to the
	// model.
	MaxSpeakers int
	// BatchSize overrides the default inference batch size.
	BatchSize int
}

// WhisperX configuration constants.
const (
	DefaultModel     = "large-v3"
	DefaultBatchSize = 4

	CPUDevice      = "cpu"
	CPUComputeType = "float32"

	OutputFormat = "json"

	// UVXCommand runs WhisperX without a permanent install.
	UVXCommand = "uvx"
)

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Segment represents one diarized span from WhisperX JSON output.
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
	Words   []Word  `json:"words"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Result locates the transcription output.
type Result struct {
	JSONPath string
}

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
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

// Transcribe runs WhisperX with diarization over source on the given device.
// language may be empty for auto-detection. The JSON output lands in
// outputDir named after the source file.
func (s *Service) Transcribe(ctx context.Context, source, outputDir, language, device string) (Result, error) {
	var result Result

	if strings.TrimSpace(source) == "" {
		return result, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir, language, device)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return result, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")
	if _, err := os.Stat(result.JSONPath); err != nil {
		return result, fmt.Errorf("whisperx: expected output %s missing: %w", result.JSONPath, err)
	}
	return result, nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language, device string) []string {
	args := []string{
		"whisperx",
		source,
		"--model", s.cfg.Model,
		"--batch_size", strconv.Itoa(s.cfg.BatchSize),
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--diarize",
	}
	if s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}
	if s.cfg.MaxSpeakers > 0 {
		args = append(args, "--max_speakers", strconv.Itoa(s.cfg.MaxSpeakers))
	}
	if lang := strings.TrimSpace(language); lang != "" {
		args = append(args, "--language", lang)
	}
	if device == CPUDevice || device == "" {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	} else {
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

// LoadSegments loads diarized segments from a WhisperX JSON file, dropping
// empty or zero-length spans. Segments the diarizer could not attribute keep
// an empty speaker label for the caller to assign.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}

	segments := make([]Segment, 0, len(payload.Segments))
	for _, seg := range payload.Segments {
		seg.Text = strings.TrimSpace(seg.Text)
		if seg.Text == "" || seg.End <= seg.Start {
			continue
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// DetectedLanguage returns the language WhisperX reported for a transcript.
func DetectedLanguage(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Language, nil
}
