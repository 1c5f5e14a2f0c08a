package config

import (
	"fmt"
	"strings"
)

// Validate checks ranges and unsupported values. It is called by Load after
// normalization; callers constructing Config literals in tests should call it
// themselves.
func (c *Config) Validate() error {
	var problems []string

	if c.Pipeline.FitTolerance <= 0 || c.Pipeline.FitTolerance >= 1 {
		problems = append(problems, fmt.Sprintf("pipeline.fit_tolerance must be in (0, 1), got %g", c.Pipeline.FitTolerance))
	}
	if c.Pipeline.MaxStretchSemitones <= 0 {
		problems = append(problems, "pipeline.max_stretch_semitones must be positive")
	}
	if c.Pipeline.RenderConcurrency < 1 {
		problems = append(problems, "pipeline.render_concurrency must be at least 1")
	}
	if c.Pipeline.MaxSpeakers < 1 {
		problems = append(problems, "pipeline.max_speakers must be at least 1")
	}
	if c.Ducking.DepthDB >= 0 {
		problems = append(problems, fmt.Sprintf("ducking.depth_db must be negative, got %g", c.Ducking.DepthDB))
	}
	if len(c.Voices.DefaultVoices) == 0 {
		problems = append(problems, "voices.default_voices must list at least one voice")
	}
	switch c.Models.AccelDevice {
	case "mps", "cuda", "cpu":
	default:
		problems = append(problems, fmt.Sprintf("models.accel_device must be mps, cuda, or cpu, got %q", c.Models.AccelDevice))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
