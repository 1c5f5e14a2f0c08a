package run

import (
	"context"
	"fmt"

	"redub/internal/segment"
)

// SegmentRecord is the persisted form of a timeline segment. Audio clips are
// not stored; they live as WAV artifacts in the run's work directory and are
// reloaded from there on resume.
type SegmentRecord struct {
	SegmentID       int64
	Speaker         string
	Start           float64
	End             float64
	SourceText      string
	TranslatedText  string
	SynthesisFailed bool
	FitStrategy     string
	FitRatio        float64
	FitLossy        bool
	ShiftedSeconds  float64
}

// SaveSegments replaces the persisted segment rows for a run with the current
// contents of the segment store.
func (s *Store) SaveSegments(ctx context.Context, runID string, segments []*segment.Segment) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin segments tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_segments WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}

	for _, seg := range segments {
		seg.Lock()
		record := SegmentRecord{
			SegmentID:       seg.ID,
			Speaker:         seg.Speaker,
			Start:           seg.Start,
			End:             seg.End,
			SourceText:      seg.SourceText,
			TranslatedText:  seg.TranslatedText,
			SynthesisFailed: seg.SynthesisFailed,
			FitStrategy:     string(seg.Fit.Strategy),
			FitRatio:        seg.Fit.Ratio,
			FitLossy:        seg.Fit.Lossy,
			ShiftedSeconds:  seg.Shifted,
		}
		seg.Unlock()

		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO run_segments (
                run_id, segment_id, speaker, start_seconds, end_seconds,
                source_text, translated_text, synthesis_failed,
                fit_strategy, fit_ratio, fit_lossy, shifted_seconds
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			record.SegmentID,
			record.Speaker,
			record.Start,
			record.End,
			record.SourceText,
			record.TranslatedText,
			record.SynthesisFailed,
			record.FitStrategy,
			record.FitRatio,
			record.FitLossy,
			record.ShiftedSeconds,
		); err != nil {
			return fmt.Errorf("insert segment %d: %w", record.SegmentID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segments: %w", err)
	}
	return nil
}

// LoadSegments returns the persisted segment rows for a run in start order.
func (s *Store) LoadSegments(ctx context.Context, runID string) ([]SegmentRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT segment_id, speaker, start_seconds, end_seconds,
                source_text, translated_text, synthesis_failed,
                fit_strategy, fit_ratio, fit_lossy, shifted_seconds
         FROM run_segments WHERE run_id = ? ORDER BY start_seconds, segment_id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []SegmentRecord
	for rows.Next() {
		var record SegmentRecord
		if err := rows.Scan(
			&record.SegmentID,
			&record.Speaker,
			&record.Start,
			&record.End,
			&record.SourceText,
			&record.TranslatedText,
			&record.SynthesisFailed,
			&record.FitStrategy,
			&record.FitRatio,
			&record.FitLossy,
			&record.ShiftedSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
