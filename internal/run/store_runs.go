package run

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const runColumns = "id, run_id, input_path, source_lang, target_lang, output_path, work_dir, status, error_message, segment_count, duration_seconds, progress_stage, progress_percent, progress_message, findings_json, created_at, updated_at"

// NewRun inserts a pending run for the given input and language pair.
func (s *Store) NewRun(ctx context.Context, inputPath, sourceLang, targetLang string) (*Run, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	runID := uuid.NewString()

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (
            run_id, input_path, source_lang, target_lang, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		inputPath,
		sourceLang,
		targetLang,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a run by row identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// GetByRunID fetches a run by its public identifier.
func (s *Store) GetByRunID(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run by run_id: %w", err)
	}
	return run, nil
}

// FindResumable returns the most recent unfinished run for the same input and
// target language, or nil when none exists.
func (s *Store) FindResumable(ctx context.Context, inputPath, targetLang string) (*Run, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+runColumns+` FROM runs
         WHERE input_path = ? AND target_lang = ? AND status NOT IN (?, ?)
         ORDER BY id DESC LIMIT 1`,
		inputPath, targetLang, StatusCompleted, StatusFailed,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find resumable run: %w", err)
	}
	return run, nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.UpdatedAt = time.Now().UTC()

	_, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET
            input_path = ?, source_lang = ?, target_lang = ?, output_path = ?,
            work_dir = ?, status = ?, error_message = ?, segment_count = ?,
            duration_seconds = ?, progress_stage = ?, progress_percent = ?,
            progress_message = ?, findings_json = ?, updated_at = ?
         WHERE id = ?`,
		run.InputPath,
		run.SourceLang,
		run.TargetLang,
		run.OutputPath,
		run.WorkDir,
		run.Status,
		run.ErrorMessage,
		run.SegmentCount,
		run.DurationSeconds,
		run.ProgressStage,
		run.ProgressPercent,
		run.ProgressMessage,
		run.FindingsJSON,
		run.UpdatedAt.Format(time.RFC3339Nano),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// Transition moves a run from one status to another, guarding against
// concurrent writers. It fails when the run is no longer in the expected
// status.
func (s *Store) Transition(ctx context.Context, id int64, from, to Status) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return fmt.Errorf("transition run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %d is not in status %q", id, from)
	}
	return nil
}

// ResetProcessing rolls every in-flight status back to its last durable
// predecessor. Called at startup so crashed runs resume at a stage boundary.
func (s *Store) ResetProcessing(ctx context.Context) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, transition := range stageRollbackTransitions {
		if _, err := s.execWithRetry(
			ctx,
			`UPDATE runs SET status = ?, updated_at = ? WHERE status = ?`,
			transition.to, now, transition.from,
		); err != nil {
			return fmt.Errorf("rollback %s: %w", transition.from, err)
		}
	}
	return nil
}

// List returns all runs, newest first.
func (s *Store) List(ctx context.Context) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AppendFinding records a finding on the run and persists it.
func (s *Store) AppendFinding(ctx context.Context, run *Run, finding Finding) error {
	findings, err := run.Findings()
	if err != nil {
		return err
	}
	findings = append(findings, finding)
	data, err := json.Marshal(findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	run.FindingsJSON = string(data)
	return s.Update(ctx, run)
}

// Findings decodes the run's recorded findings.
func (r *Run) Findings() ([]Finding, error) {
	if r.FindingsJSON == "" {
		return nil, nil
	}
	var findings []Finding
	if err := json.Unmarshal([]byte(r.FindingsJSON), &findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings: %w", err)
	}
	return findings, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run       Run
		status    string
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RunID,
		&run.InputPath,
		&run.SourceLang,
		&run.TargetLang,
		&run.OutputPath,
		&run.WorkDir,
		&status,
		&run.ErrorMessage,
		&run.SegmentCount,
		&run.DurationSeconds,
		&run.ProgressStage,
		&run.ProgressPercent,
		&run.ProgressMessage,
		&run.FindingsJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if parsed, ok := ParseStatus(status); ok {
		run.Status = parsed
	} else {
		run.Status = Status(status)
	}
	run.CreatedAt = parseTimestamp(createdAt)
	run.UpdatedAt = parseTimestamp(updatedAt)
	return &run, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts.UTC()
	}
	return time.Time{}
}
