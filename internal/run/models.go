package run

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a dubbing run.
type Status string

const (
	StatusPending      Status = "pending"
	StatusExtracting   Status = "extracting"
	StatusExtracted    Status = "extracted"
	StatusSeparating   Status = "separating"
	StatusSeparated    Status = "separated"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusTranslating  Status = "translating"
	StatusTranslated   Status = "translated"
	StatusSynthesizing Status = "synthesizing"
	StatusSynthesized  Status = "synthesized"
	StatusFitting      Status = "fitting"
	StatusFitted       Status = "fitted"
	StatusMixing       Status = "mixing"
	StatusMixed        Status = "mixed"
	StatusRemuxing     Status = "remuxing"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusExtracting,
	StatusExtracted,
	StatusSeparating,
	StatusSeparated,
	StatusTranscribing,
	StatusTranscribed,
	StatusTranslating,
	StatusTranslated,
	StatusSynthesizing,
	StatusSynthesized,
	StatusFitting,
	StatusFitted,
	StatusMixing,
	StatusMixed,
	StatusRemuxing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting:   {},
	StatusSeparating:   {},
	StatusTranscribing: {},
	StatusTranslating:  {},
	StatusSynthesizing: {},
	StatusFitting:      {},
	StatusMixing:       {},
	StatusRemuxing:     {},
}

type statusTransition struct {
	from Status
	to   Status
}

// stageRollbackTransitions map an in-flight status back to the last durable
// one. Applied at startup so a run interrupted mid-stage resumes cleanly.
var stageRollbackTransitions = []statusTransition{
	{from: StatusExtracting, to: StatusPending},
	{from: StatusSeparating, to: StatusExtracted},
	{from: StatusTranscribing, to: StatusSeparated},
	{from: StatusTranslating, to: StatusTranscribed},
	{from: StatusSynthesizing, to: StatusTranslated},
	{from: StatusFitting, to: StatusSynthesized},
	{from: StatusMixing, to: StatusFitted},
	{from: StatusRemuxing, to: StatusMixed},
}

// FindingSeverity grades run findings for the final report.
type FindingSeverity string

const (
	SeverityInfo    FindingSeverity = "info"
	SeverityWarning FindingSeverity = "warning"
	SeverityError   FindingSeverity = "error"
)

// Finding is a degraded-quality event recorded during a run: a lossy fit, a
// synthesis fallback, a timing conflict. Findings never fail the run; they
// surface in the report so the user knows where to spot-check.
type Finding struct {
	Severity  FindingSeverity `json:"severity"`
	Type      string          `json:"type"`
	SegmentID int64           `json:"segment_id,omitempty"`
	Speaker   string          `json:"speaker,omitempty"`
	Detail    string          `json:"detail"`
}

// Run represents one dubbing job persisted in SQLite.
type Run struct {
	ID           int64
	RunID        string
	InputPath    string
	SourceLang   string
	TargetLang   string
	OutputPath   string
	WorkDir      string
	Status       Status
	ErrorMessage string
	SegmentCount int
	// DurationSeconds is the source media duration once probed.
	DurationSeconds float64
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	FindingsJSON    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing reports whether the run is mid-stage.
func (r Run) IsProcessing() bool {
	return IsProcessingStatus(r.Status)
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the run has finished, successfully or not.
func (r Run) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// SetProgress updates the three progress fields together.
func (r *Run) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.ProgressMessage = message
	r.ProgressPercent = 0
	r.ProgressStage = "Failed"
}
