package config

const (
	defaultWorkDir             = "~/.local/share/redub/work"
	defaultOutputDir           = "output"
	defaultLogDir              = "~/.local/share/redub/logs"
	defaultModelDir            = "~/.cache/redub/models"
	defaultFitTolerance        = 0.15
	defaultMaxStretchSemitones = 4.0
	defaultRenderConcurrency   = 2
	defaultMaxSpeakers         = 3
	defaultCancelGraceSeconds  = 5
	defaultWorkDirRetentionHrs = 72
	defaultDuckDepthDB         = -12.0
	defaultDuckAttackMs        = 50
	defaultDuckReleaseMs       = 300
	defaultMinReferenceSeconds = 2.0
	defaultWhisperModel        = "large-v3"
	defaultWhisperModelLowMem  = "medium"
	defaultTranslationModel    = "nllb-200-distilled-600M"
	defaultSeparationModel     = "htdemucs"
	defaultAccelDevice         = "mps"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			ModelDir:  defaultModelDir,
		},
		Pipeline: Pipeline{
			FitTolerance:        defaultFitTolerance,
			MaxStretchSemitones: defaultMaxStretchSemitones,
			RenderConcurrency:   defaultRenderConcurrency,
			MaxSpeakers:         defaultMaxSpeakers,
			CancelGraceSeconds:  defaultCancelGraceSeconds,
			WorkDirRetentionHrs: defaultWorkDirRetentionHrs,
		},
		Ducking: Ducking{
			DepthDB:   defaultDuckDepthDB,
			AttackMs:  defaultDuckAttackMs,
			ReleaseMs: defaultDuckReleaseMs,
		},
		Voices: Voices{
			DefaultVoices:       []string{"amber", "basalt", "cedar"},
			MinReferenceSeconds: defaultMinReferenceSeconds,
		},
		Models: Models{
			WhisperModel:     defaultWhisperModel,
			TranslationModel: defaultTranslationModel,
			SeparationModel:  defaultSeparationModel,
			AccelDevice:      defaultAccelDevice,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// EffectiveWhisperModel returns the whisper model honoring low-memory mode.
func (c *Config) EffectiveWhisperModel() string {
	if c.Models.LowMemory && c.Models.WhisperModel == defaultWhisperModel {
		return defaultWhisperModelLowMem
	}
	return c.Models.WhisperModel
}
