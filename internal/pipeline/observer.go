package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/prerender/internal/history"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/metrics"
	"git.home.luguber.info/inful/prerender/internal/report"
)

// Observer receives callbacks around stage execution and run lifecycle.
type Observer interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, d time.Duration, result StageResult, err error)
	OnRunComplete(rep *report.BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(StageName)                                       {}
func (NoopObserver) OnStageComplete(StageName, time.Duration, StageResult, error) {}
func (NoopObserver) OnRunComplete(*report.BuildReport)                            {}

type multiObserver []Observer

func (m multiObserver) OnStageStart(stage StageName) {
	for _, o := range m {
		o.OnStageStart(stage)
	}
}

func (m multiObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult, err error) {
	for _, o := range m {
		o.OnStageComplete(stage, d, result, err)
	}
}

func (m multiObserver) OnRunComplete(rep *report.BuildReport) {
	for _, o := range m {
		o.OnRunComplete(rep)
	}
}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct{ rec metrics.Recorder }

func (recorderObserver) OnStageStart(StageName) {}

func (r recorderObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult, _ error) {
	r.rec.ObserveStageDuration(string(stage), d)
	r.rec.IncStageResult(string(stage), metrics.ResultLabel(result))
}

func (r recorderObserver) OnRunComplete(rep *report.BuildReport) {
	r.rec.ObserveRunDuration(rep.End.Sub(rep.Start))
	r.rec.IncRunOutcome(string(rep.Status))
	for _, o := range rep.PerPageOutcomes {
		r.rec.IncPageOutcome(string(o.Kind), string(o.Status))
	}
	for range rep.FallbacksUsed {
		r.rec.IncFallback()
	}
	if rep.QA != nil {
		r.rec.SetQAScore(rep.QA.Score)
	}
	r.rec.SetLastRunTimestamp(rep.End)
}

// historyObserver appends stage and run events to the audit store. Store failures
// are logged only; history never changes a run's outcome.
type historyObserver struct {
	ctx   context.Context
	store history.Store
	runID string
}

func (h historyObserver) OnStageStart(StageName) {}

func (h historyObserver) OnStageComplete(stage StageName, d time.Duration, result StageResult, err error) {
	payload := map[string]any{"duration_ms": d.Milliseconds()}
	if err != nil {
		payload["error"] = err.Error()
	}
	h.append(history.Event{RunID: h.runID, Type: history.EventStageCompleted, Stage: string(stage), Result: string(result)}, payload)
}

func (h historyObserver) OnRunComplete(rep *report.BuildReport) {
	h.append(history.Event{RunID: h.runID, Type: history.EventRunCompleted, Result: string(rep.Status)}, map[string]any{
		"terminal": rep.Terminal,
		"pages":    rep.PagesGenerated,
		"errors":   len(rep.Errors),
	})
	summary := history.RunSummary{
		RunID:     rep.RunID,
		Status:    string(rep.Status),
		Terminal:  rep.Terminal,
		Started:   rep.Start,
		Finished:  rep.End,
		Pages:     rep.PagesGenerated,
		Errors:    len(rep.Errors),
		Warnings:  len(rep.Warnings),
		Fallbacks: len(rep.FallbacksUsed),
	}
	if rep.QA != nil {
		score := rep.QA.Score
		summary.Score = &score
	}
	if err := h.store.RecordRun(h.ctx, summary); err != nil {
		slog.Warn("Failed to record run history", logfields.RunID(h.runID), logfields.Error(err))
	}
}

func (h historyObserver) append(e history.Event, payload map[string]any) {
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			e.Payload = data
		}
	}
	if err := h.store.Append(h.ctx, e); err != nil {
		slog.Warn("Failed to append history event", logfields.RunID(h.runID), slog.String("event", string(e.Type)), logfields.Error(err))
	}
}
