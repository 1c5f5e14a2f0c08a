package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath resolves a leading ~ against the user home directory and cleans
// the result. Empty input stays empty.
func ExpandPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return filepath.Clean(path)
}

func (c *Config) normalize() {
	c.Paths.WorkDir = ExpandPath(c.Paths.WorkDir)
	c.Paths.OutputDir = ExpandPath(c.Paths.OutputDir)
	c.Paths.LogDir = ExpandPath(c.Paths.LogDir)
	c.Paths.ModelDir = ExpandPath(c.Paths.ModelDir)

	if c.Pipeline.FitTolerance == 0 {
		c.Pipeline.FitTolerance = defaultFitTolerance
	}
	if c.Pipeline.MaxStretchSemitones == 0 {
		c.Pipeline.MaxStretchSemitones = defaultMaxStretchSemitones
	}
	if c.Pipeline.RenderConcurrency <= 0 {
		c.Pipeline.RenderConcurrency = defaultRenderConcurrency
	}
	if c.Pipeline.MaxSpeakers <= 0 {
		c.Pipeline.MaxSpeakers = defaultMaxSpeakers
	}
	if c.Pipeline.CancelGraceSeconds <= 0 {
		c.Pipeline.CancelGraceSeconds = defaultCancelGraceSeconds
	}
	if c.Pipeline.WorkDirRetentionHrs <= 0 {
		c.Pipeline.WorkDirRetentionHrs = defaultWorkDirRetentionHrs
	}
	if c.Ducking.DepthDB == 0 {
		c.Ducking.DepthDB = defaultDuckDepthDB
	}
	if c.Ducking.AttackMs <= 0 {
		c.Ducking.AttackMs = defaultDuckAttackMs
	}
	if c.Ducking.ReleaseMs <= 0 {
		c.Ducking.ReleaseMs = defaultDuckReleaseMs
	}
	if c.Voices.MinReferenceSeconds <= 0 {
		c.Voices.MinReferenceSeconds = defaultMinReferenceSeconds
	}
	if strings.TrimSpace(c.Models.WhisperModel) == "" {
		c.Models.WhisperModel = defaultWhisperModel
	}
	if strings.TrimSpace(c.Models.TranslationModel) == "" {
		c.Models.TranslationModel = defaultTranslationModel
	}
	if strings.TrimSpace(c.Models.SeparationModel) == "" {
		c.Models.SeparationModel = defaultSeparationModel
	}
	if strings.TrimSpace(c.Models.AccelDevice) == "" {
		c.Models.AccelDevice = defaultAccelDevice
	}
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
