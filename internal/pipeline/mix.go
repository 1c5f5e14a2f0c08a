package pipeline

import (
	"context"
	"fmt"

	"redub/internal/audio"
	"redub/internal/logging"
	"redub/internal/media"
	"redub/internal/mixer"
	"redub/internal/run"
)

// mixStage assembles the dubbed track: fitted speech placed on the timeline
// over the ducked instrumental bed.
type mixStage struct {
	*runState
}

func (s *mixStage) Prepare(ctx context.Context, r *run.Run) error {
	if err := s.ensureSegments(ctx, r); err != nil {
		return err
	}
	if err := s.loadInstrumental(); err != nil {
		return err
	}
	if s.needsFittedReload() {
		return s.loadFitted(ctx, r)
	}
	return nil
}

func (s *mixStage) needsFittedReload() bool {
	for _, seg := range s.segments.OrderedByStart() {
		seg.Lock()
		hasClip := seg.Fitted != nil
		seg.Unlock()
		if !hasClip {
			return true
		}
	}
	return false
}

func (s *mixStage) Execute(ctx context.Context, r *run.Run) error {
	assembler := mixer.New(mixer.Options{
		DuckDepthDB: s.cfg.Ducking.DepthDB,
		AttackMs:    s.cfg.Ducking.AttackMs,
		ReleaseMs:   s.cfg.Ducking.ReleaseMs,
		Logger:      s.logger,
	})

	result, err := assembler.Assemble(
		s.segments.OrderedByStart(), s.instrumental, r.DurationSeconds, media.PipelineSampleRate)
	if err != nil {
		return err
	}

	for _, conflict := range result.Conflicts {
		severity := run.SeverityInfo
		kind := "segment_shifted"
		detail := fmt.Sprintf("shifted %.2fs to clear segment %d", conflict.ShiftSeconds, conflict.OtherID)
		if conflict.Capped {
			severity = run.SeverityWarning
			kind = "segment_capped"
			detail = fmt.Sprintf("shifted %.2fs and trimmed against segment %d", conflict.ShiftSeconds, conflict.OtherID)
		}
		s.addFinding(ctx, r, run.Finding{
			Severity:  severity,
			Type:      kind,
			SegmentID: conflict.SegmentID,
			Detail:    detail,
		})
	}

	if err := audio.WriteWAV(s.mixWAV(), result.Track); err != nil {
		return err
	}
	s.logger.Info("dub track mixed",
		logging.Float64("duration_s", result.Track.Seconds()),
		logging.Int("conflicts", len(result.Conflicts)),
	)
	return s.persistSegments(ctx, r)
}
