package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	ModelDir  string `toml:"model_dir"`
}

// Pipeline contains timing-fit and scheduling configuration.
type Pipeline struct {
	// FitTolerance is the fractional duration mismatch accepted before the
	// fitter falls back to trim/pad (0.15 = 15%).
	FitTolerance float64 `toml:"fit_tolerance"`
	// MaxStretchSemitones bounds the pitch drift a time-stretch may imply.
	MaxStretchSemitones float64 `toml:"max_stretch_semitones"`
	RenderConcurrency   int     `toml:"render_concurrency"`
	MaxSpeakers         int     `toml:"max_speakers"`
	CancelGraceSeconds  int     `toml:"cancel_grace_seconds"`
	KeepWorkDir         bool    `toml:"keep_work_dir"`
	WorkDirRetentionHrs int     `toml:"work_dir_retention_hours"`
}

// Ducking contains sidechain ducking parameters for the instrumental bed.
type Ducking struct {
	DepthDB   float64 `toml:"depth_db"`
	AttackMs  int     `toml:"attack_ms"`
	ReleaseMs int     `toml:"release_ms"`
}

// Voices contains speaker voice assignment configuration.
type Voices struct {
	// DefaultVoices is the bank of built-in voice tags handed out to speakers
	// without a usable reference clip, in first-seen order.
	DefaultVoices []string `toml:"default_voices"`
	// MinReferenceSeconds is the shortest clean segment usable as a cloning
	// reference.
	MinReferenceSeconds float64 `toml:"min_reference_seconds"`
}

// Models contains external model selection.
type Models struct {
	WhisperModel     string `toml:"whisper_model"`
	TranslationModel string `toml:"translation_model"`
	SeparationModel  string `toml:"separation_model"`
	LowMemory        bool   `toml:"low_memory"`
	HFToken          string `toml:"hf_token"`
	AccelDevice      string `toml:"accel_device"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration document.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Pipeline Pipeline `toml:"pipeline"`
	Ducking  Ducking  `toml:"ducking"`
	Voices   Voices   `toml:"voices"`
	Models   Models   `toml:"models"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the canonical config file location.
func DefaultConfigPath() string {
	return filepath.Join("~", ".config", "redub", "config.toml")
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. The returned config is normalized and validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved := ExpandPath(path)
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", resolved, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// Defaults apply.
		default:
			return nil, fmt.Errorf("read config %s: %w", resolved, err)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	resolved := ExpandPath(path)
	if _, err := os.Stat(resolved); err == nil {
		return fmt.Errorf("config file already exists: %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	return os.WriteFile(resolved, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the directories the pipeline writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
