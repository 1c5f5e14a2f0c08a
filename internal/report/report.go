// Package report summarizes a finished run for the CLI: segment outcomes,
// fit strategies, and the findings collected along the way.
package report

import (
	"fmt"
	"sort"
	"strings"

	"redub/internal/run"
)

// Summary is the rendered view of one run.
type Summary struct {
	RunID      string
	Input      string
	Output     string
	SourceLang string
	TargetLang string
	Status     run.Status
	Error      string

	DurationSeconds float64
	SegmentCount    int
	SpeakerCount    int

	// StrategyCounts maps fit strategy names to segment counts.
	StrategyCounts map[string]int
	LossyCount     int
	ShiftedCount   int
	FailedCount    int

	Findings []run.Finding
}

// Build assembles a Summary from a persisted run and its segment rows.
func Build(r *run.Run, records []run.SegmentRecord) (Summary, error) {
	if r == nil {
		return Summary{}, fmt.Errorf("run is required")
	}

	findings, err := r.Findings()
	if err != nil {
		return Summary{}, fmt.Errorf("decode findings: %w", err)
	}

	summary := Summary{
		RunID:           r.RunID,
		Input:           r.InputPath,
		Output:          r.OutputPath,
		SourceLang:      r.SourceLang,
		TargetLang:      r.TargetLang,
		Status:          r.Status,
		Error:           r.ErrorMessage,
		DurationSeconds: r.DurationSeconds,
		SegmentCount:    len(records),
		StrategyCounts:  make(map[string]int),
		Findings:        findings,
	}

	speakers := make(map[string]struct{})
	for _, record := range records {
		speakers[record.Speaker] = struct{}{}
		strategy := record.FitStrategy
		if strategy == "" {
			strategy = "unfitted"
		}
		summary.StrategyCounts[strategy]++
		if record.FitLossy {
			summary.LossyCount++
		}
		if record.ShiftedSeconds != 0 {
			summary.ShiftedCount++
		}
		if record.SynthesisFailed {
			summary.FailedCount++
		}
	}
	summary.SpeakerCount = len(speakers)
	return summary, nil
}

// OverviewRows returns label/value pairs for the run overview table.
func (s Summary) OverviewRows() [][]string {
	rows := [][]string{
		{"Run", s.RunID},
		{"Status", string(s.Status)},
		{"Input", s.Input},
		{"Output", s.Output},
		{"Languages", fmt.Sprintf("%s -> %s", s.SourceLang, s.TargetLang)},
		{"Duration", formatDuration(s.DurationSeconds)},
		{"Segments", fmt.Sprintf("%d across %d speakers", s.SegmentCount, s.SpeakerCount)},
		{"Fit", s.fitLine()},
	}
	if s.Error != "" {
		rows = append(rows, []string{"Error", s.Error})
	}
	return rows
}

// FindingRows returns one row per finding, ordered errors first.
func (s Summary) FindingRows() [][]string {
	findings := make([]run.Finding, len(s.Findings))
	copy(findings, s.Findings)
	sort.SliceStable(findings, func(i, j int) bool {
		return severityRank(findings[i].Severity) < severityRank(findings[j].Severity)
	})

	rows := make([][]string, 0, len(findings))
	for _, finding := range findings {
		segment := ""
		if finding.SegmentID > 0 {
			segment = fmt.Sprintf("%d", finding.SegmentID)
		}
		rows = append(rows, []string{
			string(finding.Severity),
			finding.Type,
			segment,
			finding.Speaker,
			finding.Detail,
		})
	}
	return rows
}

func (s Summary) fitLine() string {
	if len(s.StrategyCounts) == 0 {
		return "no segments fitted"
	}
	names := make([]string, 0, len(s.StrategyCounts))
	for name := range s.StrategyCounts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+2)
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%d %s", s.StrategyCounts[name], name))
	}
	if s.LossyCount > 0 {
		parts = append(parts, fmt.Sprintf("%d lossy", s.LossyCount))
	}
	if s.FailedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d original audio kept", s.FailedCount))
	}
	return strings.Join(parts, ", ")
}

func severityRank(severity run.FindingSeverity) int {
	switch severity {
	case run.SeverityError:
		return 0
	case run.SeverityWarning:
		return 1
	default:
		return 2
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	total := int(seconds + 0.5)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm%02ds", minutes, secs)
}
