package pipeline

import (
	"context"

	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/services/translate"
	"redub/internal/workdir"
)

// translateStage batch-translates every segment's source text.
type translateStage struct {
	*runState
}

func (s *translateStage) Prepare(ctx context.Context, r *run.Run) error {
	return s.ensureSegments(ctx, r)
}

func (s *translateStage) Execute(ctx context.Context, r *run.Run) error {
	if !language.Supported(r.TargetLang) {
		return services.Wrap(services.ErrConfiguration, "translate", "execute",
			"unsupported target language: "+r.TargetLang, nil)
	}
	srcCode := language.NLLBCode(r.SourceLang)
	tgtCode := language.NLLBCode(r.TargetLang)

	var items []translate.Item
	for _, seg := range s.segments.OrderedByStart() {
		seg.Lock()
		text, done := seg.SourceText, seg.TranslatedText != ""
		seg.Unlock()
		if text == "" || done {
			continue
		}
		items = append(items, translate.Item{ID: seg.ID, Text: text})
	}
	if len(items) == 0 {
		s.logger.Info("nothing to translate")
		return nil
	}

	var translations map[int64]string
	err := s.policy.Run(ctx, "translate segments", func(ctx context.Context, device string) error {
		var callErr error
		translations, callErr = s.translator.TranslateBatch(
			ctx, items, srcCode, tgtCode, s.dir.SubDir(workdir.DirTranslate), device)
		return callErr
	})
	if err != nil {
		return err
	}

	for id, text := range translations {
		if err := s.segments.SetTranslation(id, text); err != nil {
			return err
		}
	}
	s.logger.Info("segments translated", logging.Int("count", len(translations)))
	return s.persistSegments(ctx, r)
}
