package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.FitTolerance != defaultFitTolerance {
		t.Errorf("fit tolerance = %g, want %g", cfg.Pipeline.FitTolerance, defaultFitTolerance)
	}
	if cfg.Ducking.DepthDB != defaultDuckDepthDB {
		t.Errorf("duck depth = %g, want %g", cfg.Ducking.DepthDB, defaultDuckDepthDB)
	}
	if len(cfg.Voices.DefaultVoices) == 0 {
		t.Error("expected default voice bank")
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[pipeline]
fit_tolerance = 0.25
render_concurrency = 4

[ducking]
depth_db = -18.0

[models]
accel_device = "cpu"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.FitTolerance != 0.25 {
		t.Errorf("fit tolerance = %g, want 0.25", cfg.Pipeline.FitTolerance)
	}
	if cfg.Pipeline.RenderConcurrency != 4 {
		t.Errorf("render concurrency = %d, want 4", cfg.Pipeline.RenderConcurrency)
	}
	if cfg.Ducking.DepthDB != -18.0 {
		t.Errorf("duck depth = %g, want -18", cfg.Ducking.DepthDB)
	}
	if cfg.Models.AccelDevice != "cpu" {
		t.Errorf("accel device = %q, want cpu", cfg.Models.AccelDevice)
	}
	// Untouched sections keep defaults.
	if cfg.Models.SeparationModel != defaultSeparationModel {
		t.Errorf("separation model = %q, want default", cfg.Models.SeparationModel)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[ducking]
depth_db = 6.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "depth_db") {
		t.Fatalf("expected depth_db validation error, got %v", err)
	}
}

func TestValidateAccelDevice(t *testing.T) {
	cfg := Default()
	cfg.normalize()
	cfg.Models.AccelDevice = "tpu"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported device")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandPath("~/x"); got != filepath.Join(home, "x") {
		t.Errorf("ExpandPath(~/x) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(empty) = %q", got)
	}
	if got := ExpandPath("/abs/./path"); got != "/abs/path" {
		t.Errorf("ExpandPath cleaned = %q", got)
	}
}

func TestEffectiveWhisperModel(t *testing.T) {
	cfg := Default()
	if cfg.EffectiveWhisperModel() != defaultWhisperModel {
		t.Errorf("expected default model")
	}
	cfg.Models.LowMemory = true
	if cfg.EffectiveWhisperModel() != defaultWhisperModelLowMem {
		t.Errorf("expected low-memory model")
	}
	cfg.Models.WhisperModel = "custom"
	if cfg.EffectiveWhisperModel() != "custom" {
		t.Errorf("explicit model must win over low-memory substitution")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("expected error overwriting existing config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[pipeline]") {
		t.Error("sample config missing pipeline section")
	}
}
