package history

import (
	"context"
	"time"
)

// Store records run outcomes and answers history queries.
type Store interface {
	// RecordStart inserts a run in the running state.
	RecordStart(ctx context.Context, run *Run) error
	// RecordFinish closes out a run with its final status.
	RecordFinish(ctx context.Context, runID, status, runErr string, finishedAt time.Time) error
	// RecordSteps inserts the per-step outcomes of a finished run.
	RecordSteps(ctx context.Context, results []*StepResult) error
	// RecentRuns returns runs newest first, optionally filtered by flow name.
	RecentRuns(ctx context.Context, flowName string, limit int) ([]*Run, error)
	// RunSteps returns the step results of one run.
	RunSteps(ctx context.Context, runID string) ([]*StepResult, error)
	// Close releases the underlying connection pool.
	Close() error
}

// NopStore discards everything. It serves deployments that run without a
// history DSN configured.
type NopStore struct{}

// RecordStart discards the run.
func (NopStore) RecordStart(context.Context, *Run) error { return nil }

// RecordFinish discards the update.
func (NopStore) RecordFinish(context.Context, string, string, string, time.Time) error { return nil }

// RecordSteps discards the results.
func (NopStore) RecordSteps(context.Context, []*StepResult) error { return nil }

// RecentRuns always answers with no runs.
func (NopStore) RecentRuns(context.Context, string, int) ([]*Run, error) { return nil, nil }

// RunSteps always answers with no results.
func (NopStore) RunSteps(context.Context, string) ([]*StepResult, error) { return nil, nil }

// Close is a no-op.
func (NopStore) Close() error { return nil }
