package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/prerender/internal/foundation/errors"
	"git.home.luguber.info/inful/prerender/internal/logfields"
	"git.home.luguber.info/inful/prerender/internal/qa"
	"git.home.luguber.info/inful/prerender/internal/report"
)

// stageQA validates the build directory. A reject is fatal; warnings are kept in
// the QA summary and do not affect the run status.
func stageQA(_ context.Context, st *RunState) error {
	dir := st.Config.QA.Directory
	res, err := qa.NewValidator(st.Config.QA).Validate(dir)
	if err != nil {
		return NewFatalStageError(StageQA, errors.FileSystemError("read qa directory").
			WithCause(err).Fatal().WithContext("path", dir).Build())
	}
	st.QA = res
	st.Report.QA = &report.QASummary{
		DocumentsChecked: res.DocumentsChecked,
		Blocking:         res.BlockingCount(),
		Warnings:         res.WarningCount(),
		Score:            res.Score(),
		Accepted:         res.Outcome() != qa.Reject,
	}

	if len(res.Issues) > 0 {
		if ferr := qa.NewFormatter("text").Format(st.out, res); ferr != nil {
			slog.Warn("Failed to print QA issues", logfields.Error(ferr))
		}
	}
	if rerr := res.Err(); rerr != nil {
		return NewFatalStageError(StageQA, rerr)
	}
	return nil
}
