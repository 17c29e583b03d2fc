package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/prerender/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the first
// fatal or canceled outcome. Warnings are appended to the report and the run
// continues.
func RunStages(ctx context.Context, st *RunState, stages []StageDef, obs Observer) error {
	if obs == nil {
		obs = NoopObserver{}
	}
	for i, def := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(def.Name, ctx.Err())
			st.Report.StageResults[string(def.Name)] = string(StageResultCanceled)
			obs.OnStageComplete(def.Name, 0, StageResultCanceled, se)
			markSkipped(st, stages[i+1:])
			return se
		default:
		}

		obs.OnStageStart(def.Name)
		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)

		out := ClassifyStageResult(def.Name, err)
		st.Report.StageDurations[string(def.Name)] = dur
		st.Report.StageResults[string(def.Name)] = string(out.Result)
		if out.Result == StageResultWarning {
			st.Report.AddWarning("%s", out.Error.Error())
		}
		slog.Info("Stage finished",
			logfields.RunID(st.Report.RunID),
			logfields.Stage(string(def.Name)),
			logfields.Status(string(out.Result)),
			logfields.DurationMS(float64(dur.Microseconds())/1000))

		var stageErr error
		if out.Error != nil {
			stageErr = out.Error
		}
		obs.OnStageComplete(def.Name, dur, out.Result, stageErr)

		if out.Abort {
			markSkipped(st, stages[i+1:])
			return out.Error
		}
	}
	return nil
}

func markSkipped(st *RunState, rest []StageDef) {
	for _, def := range rest {
		st.Report.StageResults[string(def.Name)] = string(StageResultSkipped)
	}
}
