package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndEvents(t *testing.T) {
	store := openMemory(t)
	ctx := t.Context()
	runID := uuid.NewString()

	require.NoError(t, store.Append(ctx, Event{RunID: runID, Type: EventRunStarted}))
	require.NoError(t, store.Append(ctx, Event{RunID: runID, Type: EventStageCompleted, Stage: "prebuild", Result: "success", Payload: []byte(`{"duration_ms":12}`)}))
	require.NoError(t, store.Append(ctx, Event{RunID: "other", Type: EventRunStarted}))

	events, err := store.Events(ctx, runID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventRunStarted, events[0].Type)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, "prebuild", events[1].Stage)
	assert.Equal(t, "success", events[1].Result)
	assert.JSONEq(t, `{"duration_ms":12}`, string(events[1].Payload))
}

func TestRecordRunUpsertAndRecent(t *testing.T) {
	store := openMemory(t)
	ctx := t.Context()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	score := 92.5

	require.NoError(t, store.RecordRun(ctx, RunSummary{RunID: "a", Status: "running", Started: base, Finished: base}))
	require.NoError(t, store.RecordRun(ctx, RunSummary{RunID: "a", Status: "completed", Terminal: "published", Started: base, Finished: base.Add(time.Minute), Pages: 9, Score: &score}))
	require.NoError(t, store.RecordRun(ctx, RunSummary{RunID: "b", Status: "failed", Terminal: "aborted", Started: base, Finished: base.Add(2 * time.Minute), Errors: 1}))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].RunID)
	assert.Nil(t, runs[0].Score)
	assert.Equal(t, "completed", runs[1].Status)
	assert.Equal(t, 9, runs[1].Pages)
	require.NotNil(t, runs[1].Score)
	assert.InDelta(t, 92.5, *runs[1].Score, 1e-9)
	assert.True(t, runs[1].Finished.Equal(base.Add(time.Minute)))

	runs, err = store.RecentRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), Event{RunID: "r", Type: EventRunStarted}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	events, err := store.Events(t.Context(), "r")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
