package pipeline

import (
	"errors"
	"log/slog"
)

// StageOutcome is the normalized result of one stage execution.
type StageOutcome struct {
	Stage  StageName
	Error  *StageError
	Result StageResult
	Abort  bool
}

// ClassifyStageResult converts a raw stage error into a StageOutcome. Errors that
// are not a StageError are fatal.
func ClassifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !errors.As(err, &se) {
		return StageOutcome{Stage: stage, Error: NewFatalStageError(stage, err), Result: StageResultFatal, Abort: true}
	}

	switch se.Kind {
	case StageErrorCanceled:
		return StageOutcome{Stage: stage, Error: se, Result: StageResultCanceled, Abort: true}
	case StageErrorWarning:
		slog.Warn("Stage completed with warning", slog.String("stage", string(stage)), slog.String("error", se.Err.Error()))
		return StageOutcome{Stage: stage, Error: se, Result: StageResultWarning}
	default:
		return StageOutcome{Stage: stage, Error: se, Result: StageResultFatal, Abort: true}
	}
}
