// Package translate wraps the redub-mt helper, a batch machine-translation
// CLI running an NLLB model, exchanging segment text through JSON files.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Config captures runtime settings for translation.
type Config struct {
	// Model is the translation model name (e.g. "nllb-200-distilled-600M").
	Model string
	// LowMem asks the helper to load the model in reduced-memory mode.
	LowMem bool
}

// Translation constants.
const (
	DefaultModel = "nllb-200-distilled-600M"

	// UVXCommand runs the helper without a permanent install.
	UVXCommand = "uvx"
	// HelperEntrypoint is the batch translator entrypoint.
	HelperEntrypoint = "redub-mt"

	requestFile  = "translate_request.json"
	responseFile = "translate_response.json"
)

// Item pairs a segment identifier with its text, in both the request and the
// response.
type Item struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// Service invokes the translation helper.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a translation service with the given configuration.
func NewService(cfg Config) *Service {
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

// TranslateBatch translates all items in one helper invocation. srcCode and
// tgtCode are model language codes (eng_Latn style for NLLB). workDir holds
// the exchange files and survives for inspection on failure.
func (s *Service) TranslateBatch(ctx context.Context, items []Item, srcCode, tgtCode, workDir, device string) (map[int64]string, error) {
	if len(items) == 0 {
		return map[int64]string{}, nil
	}
	if strings.TrimSpace(tgtCode) == "" {
		return nil, fmt.Errorf("translate: target language code required")
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("translate: ensure work dir: %w", err)
	}

	requestPath := filepath.Join(workDir, requestFile)
	responsePath := filepath.Join(workDir, responseFile)

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("translate: marshal request: %w", err)
	}
	if err := os.WriteFile(requestPath, payload, 0o644); err != nil {
		return nil, fmt.Errorf("translate: write request: %w", err)
	}

	args := s.buildArgs(requestPath, responsePath, srcCode, tgtCode, device)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	data, err := os.ReadFile(responsePath)
	if err != nil {
		return nil, fmt.Errorf("translate: read response: %w", err)
	}
	var translated []Item
	if err := json.Unmarshal(data, &translated); err != nil {
		return nil, fmt.Errorf("translate: parse response: %w", err)
	}

	results := make(map[int64]string, len(translated))
	for _, item := range translated {
		results[item.ID] = strings.TrimSpace(item.Text)
	}
	for _, item := range items {
		if _, ok := results[item.ID]; !ok {
			return nil, fmt.Errorf("translate: response missing segment %d", item.ID)
		}
	}
	return results, nil
}

func (s *Service) buildArgs(requestPath, responsePath, srcCode, tgtCode, device string) []string {
	args := []string{
		HelperEntrypoint,
		"--model", s.cfg.Model,
		"--input", requestPath,
		"--output", responsePath,
		"--tgt-lang", tgtCode,
		"--device", device,
	}
	if srcCode != "" {
		args = append(args, "--src-lang", srcCode)
	}
	if s.cfg.LowMem {
		args = append(args, "--low-mem")
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
