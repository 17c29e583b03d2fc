// Package report holds the per-run BuildReport: the single mutable record every
// pipeline stage appends to, persisted once when the run ends.
package report

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a run. It only ever advances.
type Status string

const (
	StatusStarting            Status = "starting"
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusFailed              Status = "failed"
)

func (s Status) rank() int {
	switch s {
	case StatusStarting:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return 2
	default:
		return -1
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s.rank() == 2 }

// Terminal run dispositions.
const (
	TerminalPublished = "published"
	TerminalAborted   = "aborted"
)

// ErrStatusRegression is returned when a transition would move status backwards
// or out of a terminal state.
var ErrStatusRegression = errors.New("report: status regression")

// BuildReport captures everything one pipeline run did.
type BuildReport struct {
	SchemaVersion       int
	RunID               string
	Status              Status
	Terminal            string
	SourceConnected     bool
	PagesGenerated      int
	CategoriesProcessed int
	PagesChanged        int
	Errors              []string
	Warnings            []string
	FallbacksUsed       []string
	PerPageOutcomes     []PageOutcome
	Artifacts           []string
	StageDurations      map[string]time.Duration
	StageResults        map[string]string
	QA                  *QASummary
	Start               time.Time
	End                 time.Time
	Version             string
	Revision            string
}

// QASummary is the validator verdict folded into the report.
type QASummary struct {
	DocumentsChecked int     `json:"documents_checked"`
	Blocking         int     `json:"blocking"`
	Warnings         int     `json:"warnings"`
	Score            float64 `json:"score"`
	Accepted         bool    `json:"accepted"`
}

// New creates a report in the starting state.
func New(runID string) *BuildReport {
	return &BuildReport{
		SchemaVersion:  1,
		RunID:          runID,
		Status:         StatusStarting,
		Start:          time.Now(),
		StageDurations: make(map[string]time.Duration),
		StageResults:   make(map[string]string),
	}
}

// Advance moves the status forward. Moving backwards, leaving a terminal state,
// completing a run that never started running, or naming an unknown status fails
// with ErrStatusRegression. A run may fail from any non-terminal state.
func (r *BuildReport) Advance(to Status) error {
	if to == r.Status && !to.Terminal() {
		return nil
	}
	if r.Status.Terminal() || to.rank() <= r.Status.rank() ||
		(r.Status == StatusStarting && to.Terminal() && to != StatusFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrStatusRegression, r.Status, to)
	}
	r.Status = to
	return nil
}

// AddError appends a recoverable or fatal error message.
func (r *BuildReport) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// AddWarning appends an advisory message.
func (r *BuildReport) AddWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// AddFallback records reuse of prior output in place of regeneration.
func (r *BuildReport) AddFallback(format string, args ...any) {
	r.FallbacksUsed = append(r.FallbacksUsed, fmt.Sprintf(format, args...))
}

// Fail records a fatal error and moves the run to failed. A run that already
// reached a terminal status keeps it; the error is still recorded.
func (r *BuildReport) Fail(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
	_ = r.Advance(StatusFailed)
	r.Terminal = TerminalAborted
}

// Complete derives the terminal success status: completed when nothing was
// recorded, completed_with_errors when any error, warning or fallback exists.
func (r *BuildReport) Complete() error {
	to := StatusCompleted
	if len(r.Errors) > 0 || len(r.Warnings) > 0 || len(r.FallbacksUsed) > 0 {
		to = StatusCompletedWithErrors
	}
	if err := r.Advance(to); err != nil {
		return err
	}
	r.Terminal = TerminalPublished
	return nil
}

// Finish stamps the end time.
func (r *BuildReport) Finish() {
	if r.End.IsZero() {
		r.End = time.Now()
	}
}

// SuccessfulOutcomes returns the outcomes with status success, in generation order.
func (r *BuildReport) SuccessfulOutcomes() []PageOutcome {
	out := make([]PageOutcome, 0, len(r.PerPageOutcomes))
	for _, o := range r.PerPageOutcomes {
		if o.Status == PageSuccess {
			out = append(out, o)
		}
	}
	return out
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	if r.End.IsZero() {
		dur = time.Since(r.Start)
	}
	return fmt.Sprintf("run=%s status=%s pages=%d categories=%d errors=%d warnings=%d fallbacks=%d duration=%s",
		r.RunID, r.Status, r.PagesGenerated, r.CategoriesProcessed, len(r.Errors), len(r.Warnings), len(r.FallbacksUsed), dur.Truncate(time.Millisecond))
}
