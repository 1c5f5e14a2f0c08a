package pipeline

import (
	"context"
	"fmt"
	"os"

	"redub/internal/logging"
	"redub/internal/run"
	"redub/internal/services"
	"redub/internal/services/demucs"
	"redub/internal/workdir"
)

// separateStage splits the extracted audio into a vocal stem and an
// instrumental bed.
type separateStage struct {
	*runState
}

func (s *separateStage) Prepare(_ context.Context, _ *run.Run) error {
	if _, err := os.Stat(s.extractedWAV()); err != nil {
		return services.Wrap(services.ErrStaleState, "separate", "prepare",
			fmt.Sprintf("extracted audio missing: %s", s.extractedWAV()), err)
	}
	return nil
}

func (s *separateStage) Execute(ctx context.Context, _ *run.Run) error {
	var stems demucs.StemPaths
	err := s.policy.Run(ctx, "separate stems", func(ctx context.Context, device string) error {
		var callErr error
		stems, callErr = s.separator.Separate(ctx, s.extractedWAV(), s.dir.SubDir(workdir.DirStems), device)
		return callErr
	})
	if err != nil {
		return err
	}
	s.logger.Info("stems separated",
		logging.String("vocals", stems.Vocals),
		logging.String("instrumental", stems.Instrumental),
	)
	return nil
}
