package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStoreFromDSN("sqlite://:memory:")
	require.NoError(t, err, "opening an in-memory store should succeed")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestNewStoreFromDSN_RejectsUnknownScheme verifies that a DSN without a
// recognized scheme fails fast instead of opening a half-configured store.
func TestNewStoreFromDSN_RejectsUnknownScheme(t *testing.T) {
	t.Parallel()

	// Act
	_, err := NewStoreFromDSN("redis://localhost:6379")

	// Assert
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported history DSN")
}

// TestStore_RecordsRunLifecycle verifies a full start-then-finish round trip
// through the SQLite backend.
func TestStore_RecordsRunLifecycle(t *testing.T) {
	t.Parallel()

	// Arrange
	store := newTestStore(t)
	ctx := context.Background()
	startedAt := time.Now().UTC().Truncate(time.Second)
	run := &Run{
		ID:        "run-001",
		FlowName:  "notion_embed",
		Trigger:   TriggerSchedule,
		Status:    RunStatusRunning,
		StartedAt: startedAt,
	}

	// Act
	require.NoError(t, store.RecordStart(ctx, run))
	finishedAt := startedAt.Add(90 * time.Second)
	require.NoError(t, store.RecordFinish(ctx, "run-001", RunStatusSuccess, "", finishedAt))
	runs, err := store.RecentRuns(ctx, "notion_embed", 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-001", runs[0].ID)
	assert.Equal(t, TriggerSchedule, runs[0].Trigger)
	assert.Equal(t, RunStatusSuccess, runs[0].Status)
	assert.Empty(t, runs[0].Error)
	assert.False(t, runs[0].FinishedAt.IsZero(), "finished_at should be persisted")
}

// TestStore_RecordsStepResults verifies that batched step results come back
// in insertion order for a given run.
func TestStore_RecordsStepResults(t *testing.T) {
	t.Parallel()

	// Arrange
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	run := &Run{ID: "run-002", FlowName: "notion_embed", Trigger: TriggerManual, Status: RunStatusRunning, StartedAt: now}
	require.NoError(t, store.RecordStart(ctx, run))

	results := []*StepResult{
		{RunID: "run-002", StepID: "step.git.checkout", Status: StepStatusDone, StartedAt: now, FinishedAt: now.Add(time.Second)},
		{RunID: "run-002", StepID: "step.exec.install_deps", Status: StepStatusFailed, Error: "exit status 1", StartedAt: now.Add(time.Second)},
		{RunID: "run-002", StepID: "step.python.embed", Status: StepStatusSkipped, Error: "skipped due to failed dependency"},
	}

	// Act
	require.NoError(t, store.RecordSteps(ctx, results))
	stored, err := store.RunSteps(ctx, "run-002")

	// Assert
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "step.git.checkout", stored[0].StepID)
	assert.Equal(t, "step.exec.install_deps", stored[1].StepID)
	assert.Equal(t, "step.python.embed", stored[2].StepID)
	assert.Equal(t, StepStatusFailed, stored[1].Status)
	assert.Equal(t, "exit status 1", stored[1].Error)
}

// TestStore_RecentRunsFiltersByFlow verifies the optional flow-name filter
// and the result ordering.
func TestStore_RecentRunsFiltersByFlow(t *testing.T) {
	t.Parallel()

	// Arrange
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i, flow := range []string{"alpha", "beta", "alpha"} {
		run := &Run{
			ID:        []string{"run-a1", "run-b1", "run-a2"}[i],
			FlowName:  flow,
			Trigger:   TriggerManual,
			Status:    RunStatusSuccess,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.RecordStart(ctx, run))
	}

	// Act
	alphaRuns, err := store.RecentRuns(ctx, "alpha", 10)
	require.NoError(t, err)
	allRuns, err := store.RecentRuns(ctx, "", 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, alphaRuns, 2)
	assert.Equal(t, "run-a2", alphaRuns[0].ID, "most recent run should come first")
	assert.Equal(t, "run-a1", alphaRuns[1].ID)
	assert.Len(t, allRuns, 3)
}

// TestStore_RecordStepsWithNoResultsIsNoop covers the empty-batch edge so a
// flow with zero executed steps does not produce an insert error.
func TestStore_RecordStepsWithNoResultsIsNoop(t *testing.T) {
	t.Parallel()

	// Arrange
	store := newTestStore(t)

	// Act & Assert
	require.NoError(t, store.RecordSteps(context.Background(), nil))
}

// TestNopStore_AcceptsAllCalls verifies the disabled-history store swallows
// every call without touching any backend.
func TestNopStore_AcceptsAllCalls(t *testing.T) {
	t.Parallel()

	// Arrange
	store := NopStore{}
	ctx := context.Background()

	// Act & Assert
	require.NoError(t, store.RecordStart(ctx, &Run{ID: "x"}))
	require.NoError(t, store.RecordFinish(ctx, "x", RunStatusSuccess, "", time.Now()))
	require.NoError(t, store.RecordSteps(ctx, []*StepResult{{RunID: "x"}}))

	runs, err := store.RecentRuns(ctx, "", 5)
	require.NoError(t, err)
	assert.Empty(t, runs)

	steps, err := store.RunSteps(ctx, "x")
	require.NoError(t, err)
	assert.Empty(t, steps)

	require.NoError(t, store.Close())
}
