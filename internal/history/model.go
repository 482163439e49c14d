package history

import (
	"time"

	"github.com/uptrace/bun"
)

// Run statuses.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Step result statuses.
const (
	StepStatusDone    = "done"
	StepStatusFailed  = "failed"
	StepStatusSkipped = "skipped"
)

// Trigger kinds recorded per run.
const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

// Run is one execution of a flow.
type Run struct {
	bun.BaseModel `bun:"table:runs"`

	ID         string    `bun:"id,pk"`
	FlowName   string    `bun:"flow_name"`
	Trigger    string    `bun:"trigger_kind"`
	Status     string    `bun:"status"`
	Error      string    `bun:"error"`
	StartedAt  time.Time `bun:"started_at"`
	FinishedAt time.Time `bun:"finished_at,nullzero"`
}

// StepResult is the outcome of one step within a run.
type StepResult struct {
	bun.BaseModel `bun:"table:step_results"`

	ID         int64     `bun:"id,pk,autoincrement"`
	RunID      string    `bun:"run_id"`
	StepID     string    `bun:"step_id"`
	Status     string    `bun:"status"`
	Error      string    `bun:"error"`
	StartedAt  time.Time `bun:"started_at,nullzero"`
	FinishedAt time.Time `bun:"finished_at,nullzero"`
}
