// Package scheduler triggers flow runs from cron expressions.
//
// It wraps robfig/cron with panic recovery and overlap suppression, so a
// slow run never stacks a second copy of the same flow on top of itself.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Entry describes one scheduled flow.
type Entry struct {
	FlowName string
	Spec     string
	Next     time.Time
}

type scheduledFlow struct {
	id   cron.EntryID
	spec string
}

// Scheduler owns the cron runner and the flow-to-entry mapping.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu    sync.Mutex
	flows map[string]scheduledFlow
}

// New builds a stopped scheduler. Call Start once every flow is added.
func New(logger *slog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(
				cron.Recover(cl),
				cron.SkipIfStillRunning(cl),
			),
		),
		logger: logger,
		flows:  make(map[string]scheduledFlow),
	}
}

// Add registers a job for the flow under the given cron spec. The spec uses
// the standard five-field format.
func (s *Scheduler) Add(spec, flowName string, job func()) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q for flow %q: %w", spec, flowName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.flows[flowName]; exists {
		return fmt.Errorf("flow %q is already scheduled", flowName)
	}

	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("failed to schedule flow %q: %w", flowName, err)
	}
	s.flows[flowName] = scheduledFlow{id: id, spec: spec}
	s.logger.Info("⏰ Scheduled flow", "flow", flowName, "cron", spec)
	return nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling. The returned context is done once every in-flight
// job has returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Entries lists the scheduled flows sorted by name, with their next fire
// time. Next is zero until Start has been called.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.flows))
	for name, sf := range s.flows {
		entries = append(entries, Entry{
			FlowName: name,
			Spec:     sf.spec,
			Next:     s.cron.Entry(sf.id).Next,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].FlowName < entries[j].FlowName })
	return entries
}

// NextTimes computes the next n fire times of a cron spec after the given
// instant. It answers "when would this run" without starting anything.
func NextTimes(spec string, from time.Time, n int) ([]time.Time, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	times := make([]time.Time, 0, n)
	next := from
	for i := 0; i < n; i++ {
		next = sched.Next(next)
		times = append(times, next)
	}
	return times, nil
}

// cronLogger adapts slog to the cron.Logger interface. Routine messages go
// to debug so steady-state scheduling stays quiet.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{"error", err}, keysAndValues...)
	l.logger.Error(msg, args...)
}
