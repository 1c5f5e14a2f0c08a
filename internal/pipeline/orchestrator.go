package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"redub/internal/config"
	"redub/internal/logging"
	"redub/internal/media"
	"redub/internal/render"
	"redub/internal/run"
	"redub/internal/segment"
	"redub/internal/services"
	"redub/internal/services/accel"
	"redub/internal/services/demucs"
	"redub/internal/services/translate"
	"redub/internal/services/whisperx"
	"redub/internal/services/xtts"
	"redub/internal/stage"
	"redub/internal/stageexec"
	"redub/internal/textutil"
	"redub/internal/workdir"
)

// Options configures an Orchestrator. Service fields are optional; when nil
// they are built from the configuration. Tests inject fakes through them.
type Options struct {
	Config *config.Config
	Store  *run.Store
	Logger *slog.Logger

	Media       *media.Toolset
	Separator   *demucs.Service
	Transcriber *whisperx.Service
	Translator  *translate.Service
	Synthesizer render.Synthesizer

	// SpeakerReference is the run-level reference clip for voice cloning,
	// honored only for single-speaker sources.
	SpeakerReference string
	// Subtitles asks for a translated SRT sidecar next to the output.
	Subtitles bool
}

// Orchestrator executes dubbing runs stage by stage.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New builds an Orchestrator, filling in any services Options left nil.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline: config is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline: run store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	cfg := opts.Config
	if opts.Media == nil {
		opts.Media = media.NewToolset("", "")
	}
	if opts.Separator == nil {
		opts.Separator = demucs.NewService(demucs.Config{
			Model:  cfg.Models.SeparationModel,
			LowMem: cfg.Models.LowMemory,
		})
	}
	if opts.Transcriber == nil {
		opts.Transcriber = whisperx.NewService(whisperx.Config{
			Model:       cfg.EffectiveWhisperModel(),
			HFToken:     cfg.Models.HFToken,
			MaxSpeakers: cfg.Pipeline.MaxSpeakers,
		})
	}
	if opts.Translator == nil {
		opts.Translator = translate.NewService(translate.Config{
			Model:  cfg.Models.TranslationModel,
			LowMem: cfg.Models.LowMemory,
		})
	}
	if opts.Synthesizer == nil {
		opts.Synthesizer = xtts.NewService(xtts.Config{})
	}

	return &Orchestrator{opts: opts, logger: logger}, nil
}

type stageSpec struct {
	name       string
	trigger    run.Status
	processing run.Status
	done       run.Status
	handler    func(*runState) stage.Handler
}

func stageTable() []stageSpec {
	return []stageSpec{
		{"extract", run.StatusPending, run.StatusExtracting, run.StatusExtracted,
			func(s *runState) stage.Handler { return &extractStage{s} }},
		{"separate", run.StatusExtracted, run.StatusSeparating, run.StatusSeparated,
			func(s *runState) stage.Handler { return &separateStage{s} }},
		{"transcribe", run.StatusSeparated, run.StatusTranscribing, run.StatusTranscribed,
			func(s *runState) stage.Handler { return &transcribeStage{s} }},
		{"translate", run.StatusTranscribed, run.StatusTranslating, run.StatusTranslated,
			func(s *runState) stage.Handler { return &translateStage{s} }},
		{"synthesize", run.StatusTranslated, run.StatusSynthesizing, run.StatusSynthesized,
			func(s *runState) stage.Handler { return &synthesizeStage{s} }},
		{"fit", run.StatusSynthesized, run.StatusFitting, run.StatusFitted,
			func(s *runState) stage.Handler { return &fitStage{s} }},
		{"mix", run.StatusFitted, run.StatusMixing, run.StatusMixed,
			func(s *runState) stage.Handler { return &mixStage{s} }},
		{"remux", run.StatusMixed, run.StatusRemuxing, run.StatusCompleted,
			func(s *runState) stage.Handler { return &remuxStage{s} }},
	}
}

// Execute drives r from its current status to completion. Interrupted or
// failed runs keep their work directory; successful runs clean it up unless
// retention is configured.
func (o *Orchestrator) Execute(ctx context.Context, r *run.Run) error {
	cfg := o.opts.Config
	logger := logging.WithContext(services.WithRunID(ctx, r.RunID), o.logger)

	dir, err := workdir.Open(cfg.Paths.WorkDir, r.RunID)
	if err != nil {
		return err
	}
	defer func() { _ = dir.Release() }()

	if r.WorkDir != dir.Root() {
		r.WorkDir = dir.Root()
		if err := o.opts.Store.Update(ctx, r); err != nil {
			return err
		}
	}

	state := &runState{
		cfg:               cfg,
		store:             o.opts.Store,
		logger:            logger,
		media:             o.opts.Media,
		separator:         o.opts.Separator,
		transcriber:       o.opts.Transcriber,
		translator:        o.opts.Translator,
		synth:             o.opts.Synthesizer,
		policy:            accel.New(cfg.Models.AccelDevice, logger),
		explicitReference: o.opts.SpeakerReference,
		subtitles:         o.opts.Subtitles,
		dir:               dir,
		segments:          segment.NewStore(),
	}

	table := stageTable()
	for !r.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		spec, ok := stageFor(table, r.Status)
		if !ok {
			return fmt.Errorf("no stage handles status %q", r.Status)
		}
		err := stageexec.Run(services.WithRunID(ctx, r.RunID), stageexec.Options{
			Logger:     o.logger,
			Store:      o.opts.Store,
			Handler:    spec.handler(state),
			StageName:  spec.name,
			Processing: spec.processing,
			Done:       spec.done,
			Run:        r,
		})
		if err != nil {
			return err
		}
	}

	if r.Status == run.StatusCompleted && !cfg.Pipeline.KeepWorkDir {
		if err := dir.Remove(); err != nil {
			logger.Warn("failed to remove work directory", logging.Error(err))
		}
	}
	return nil
}

func stageFor(table []stageSpec, status run.Status) (stageSpec, bool) {
	for _, spec := range table {
		if spec.trigger == status {
			return spec, true
		}
	}
	return stageSpec{}, false
}

// OutputPath names the dubbed file for an input and target language.
func OutputPath(outputDir, inputPath, targetLang string) string {
	base := filepath.Base(inputPath)
	stem := textutil.SanitizeFileName(strings.TrimSuffix(base, filepath.Ext(base)))
	return filepath.Join(outputDir, fmt.Sprintf("%s_dubbed_%s.mp4", stem, targetLang))
}
