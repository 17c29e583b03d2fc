package pipeline

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/prerender/internal/report"
)

func newState() *RunState {
	return &RunState{Report: report.New("r")}
}

func TestRunStages_WarningContinues(t *testing.T) {
	st := newState()
	var ran []StageName
	defs := NewPipeline().
		Add("a", func(context.Context, *RunState) error {
			ran = append(ran, "a")
			return NewWarnStageError("a", stderrors.New("slow"))
		}).
		Add("b", func(context.Context, *RunState) error { ran = append(ran, "b"); return nil }).
		Build()

	require.NoError(t, RunStages(t.Context(), st, defs, nil))
	assert.Equal(t, []StageName{"a", "b"}, ran)
	assert.Equal(t, "warning", st.Report.StageResults["a"])
	assert.Equal(t, "success", st.Report.StageResults["b"])
	require.Len(t, st.Report.Warnings, 1)
	assert.Contains(t, st.Report.Warnings[0], "slow")
}

func TestRunStages_PlainErrorIsFatal(t *testing.T) {
	st := newState()
	boom := stderrors.New("boom")
	defs := NewPipeline().
		Add("a", func(context.Context, *RunState) error { return boom }).
		Add("b", func(context.Context, *RunState) error { t.Fatal("must not run"); return nil }).
		Build()

	err := RunStages(t.Context(), st, defs, nil)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fatal", st.Report.StageResults["a"])
	assert.Equal(t, "skipped", st.Report.StageResults["b"])
	assert.Contains(t, st.Report.StageDurations, "a")
}

func TestRunStages_Canceled(t *testing.T) {
	st := newState()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := RunStages(ctx, st, Stages(ModeFull), nil)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.Equal(t, "canceled", st.Report.StageResults[string(StageEnvironmentCheck)])
	assert.Equal(t, "skipped", st.Report.StageResults[string(StagePublishValidate)])
}

func TestPipelineBuilder(t *testing.T) {
	full := Stages(ModeFull)
	require.Len(t, full, 5)
	assert.Equal(t, StageEnvironmentCheck, full[0].Name)
	assert.Equal(t, StagePublishValidate, full[4].Name)

	pre := Stages(ModePrebuild)
	require.Len(t, pre, 2)
	assert.Equal(t, StagePrebuild, pre[1].Name)
}

func TestClassifyStageResult(t *testing.T) {
	assert.Equal(t, StageResultSuccess, ClassifyStageResult("x", nil).Result)
	out := ClassifyStageResult("x", NewCanceledStageError("x", context.Canceled))
	assert.True(t, out.Abort)
	assert.Equal(t, StageResultCanceled, out.Result)
	out = ClassifyStageResult("x", NewWarnStageError("x", stderrors.New("w")))
	assert.False(t, out.Abort)
}
