package report

import (
	"encoding/json"
	"strings"
	"testing"

	"redub/internal/run"
)

func sampleRun(t *testing.T) *run.Run {
	t.Helper()
	findings := []run.Finding{
		{Severity: run.SeverityInfo, Type: "segment_shifted", SegmentID: 3, Speaker: "SPEAKER_01", Detail: "shifted 0.40s"},
		{Severity: run.SeverityWarning, Type: "lossy_trim", SegmentID: 2, Speaker: "SPEAKER_00", Detail: "trimmed 0.60s of speech"},
	}
	raw, err := json.Marshal(findings)
	if err != nil {
		t.Fatalf("marshal findings: %v", err)
	}
	return &run.Run{
		RunID:           "a1b2c3",
		InputPath:       "/media/movie.mp4",
		OutputPath:      "/media/movie_dubbed_de.mp4",
		SourceLang:      "en",
		TargetLang:      "de",
		Status:          run.StatusCompleted,
		DurationSeconds: 5400,
		FindingsJSON:    string(raw),
	}
}

func sampleRecords() []run.SegmentRecord {
	return []run.SegmentRecord{
		{SegmentID: 1, Speaker: "SPEAKER_00", FitStrategy: "exact"},
		{SegmentID: 2, Speaker: "SPEAKER_00", FitStrategy: "trimmed", FitLossy: true},
		{SegmentID: 3, Speaker: "SPEAKER_01", FitStrategy: "stretched", ShiftedSeconds: 0.4},
		{SegmentID: 4, Speaker: "SPEAKER_01", FitStrategy: "exact", SynthesisFailed: true},
	}
}

func TestBuildCountsOutcomes(t *testing.T) {
	summary, err := Build(sampleRun(t), sampleRecords())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if summary.SegmentCount != 4 {
		t.Fatalf("segment count = %d, want 4", summary.SegmentCount)
	}
	if summary.SpeakerCount != 2 {
		t.Fatalf("speaker count = %d, want 2", summary.SpeakerCount)
	}
	if summary.StrategyCounts["exact"] != 2 || summary.StrategyCounts["trimmed"] != 1 || summary.StrategyCounts["stretched"] != 1 {
		t.Fatalf("strategy counts = %v", summary.StrategyCounts)
	}
	if summary.LossyCount != 1 || summary.ShiftedCount != 1 || summary.FailedCount != 1 {
		t.Fatalf("lossy=%d shifted=%d failed=%d", summary.LossyCount, summary.ShiftedCount, summary.FailedCount)
	}
	if len(summary.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(summary.Findings))
	}
}

func TestOverviewRowsIncludeFitLine(t *testing.T) {
	summary, err := Build(sampleRun(t), sampleRecords())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows := summary.OverviewRows()
	var fit string
	for _, row := range rows {
		if row[0] == "Fit" {
			fit = row[1]
		}
	}
	if !strings.Contains(fit, "2 exact") || !strings.Contains(fit, "1 lossy") {
		t.Fatalf("fit line = %q", fit)
	}
	var duration string
	for _, row := range rows {
		if row[0] == "Duration" {
			duration = row[1]
		}
	}
	if duration != "1h30m00s" {
		t.Fatalf("duration = %q, want 1h30m00s", duration)
	}
}

func TestFindingRowsOrderWarningsBeforeInfo(t *testing.T) {
	summary, err := Build(sampleRun(t), sampleRecords())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	rows := summary.FindingRows()
	if len(rows) != 2 {
		t.Fatalf("finding rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "warning" || rows[1][0] != "info" {
		t.Fatalf("severity order = %q, %q", rows[0][0], rows[1][0])
	}
	if rows[0][2] != "2" {
		t.Fatalf("segment column = %q, want 2", rows[0][2])
	}
}
