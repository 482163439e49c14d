package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/api"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/specialistvlad/flowgridgo/internal/history"
	"github.com/specialistvlad/flowgridgo/internal/scheduler"
)

// shutdownGrace bounds how long Serve waits for in-flight work on shutdown.
const shutdownGrace = 30 * time.Second

// Serve runs the application as a daemon: scheduled flows fire on their cron
// expressions and the control API accepts manual dispatches. It blocks until
// the context is cancelled or a termination signal arrives, then drains
// in-flight runs before returning.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Info("🚀 Starting flowgrid daemon.", "flows", len(a.config.Flows))

	sched := scheduler.New(a.logger)
	scheduled := 0
	for _, flow := range a.config.Flows {
		if flow.Trigger == nil || flow.Trigger.Schedule == "" {
			continue
		}
		flowName := flow.Name
		err := sched.Add(flow.Trigger.Schedule, flowName, func() {
			runCtx := ctxlog.WithLogger(context.Background(), a.logger)
			if _, err := a.RunFlow(runCtx, flowName, history.TriggerSchedule); err != nil {
				a.logger.Error("Scheduled flow run failed.", "flow", flowName, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule flows: %w", err)
		}
		scheduled++
	}

	var server *api.Server
	apiErrChan := make(chan error, 1)
	if a.cfg.APIPort > 0 {
		server = api.NewServer(api.Options{
			Logger: a.logger,
			Flows:  a.FlowInfos,
			Dispatch: func(_ context.Context, flowName string) (string, error) {
				return a.DispatchAsync(flowName)
			},
			History: a.store,
		})
		go func() {
			apiErrChan <- server.Start(fmt.Sprintf(":%d", a.cfg.APIPort))
		}()
	}

	sched.Start()
	a.logger.Info("Daemon ready.", "scheduled_flows", scheduled, "api_port", a.cfg.APIPort)

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apiErr error
	select {
	case <-signalCtx.Done():
		a.logger.Info("Shutdown requested, draining in-flight runs.")
	case apiErr = <-apiErrChan:
		a.logger.Error("Control API stopped unexpectedly.", "error", apiErr)
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	// Stop the cron runner first so nothing new fires, then wait for runs
	// started by the scheduler and by API dispatches.
	select {
	case <-sched.Stop().Done():
	case <-drainCtx.Done():
		a.logger.Warn("Timed out waiting for scheduled runs to finish.")
	}
	a.waitForRuns(drainCtx)

	if server != nil {
		if err := server.Shutdown(drainCtx); err != nil {
			a.logger.Warn("Control API shutdown failed.", "error", err)
		}
	}

	a.logger.Info("🏁 Daemon stopped.")
	return apiErr
}

// waitForRuns blocks until every background dispatch has finished or the
// context expires.
func (a *App) waitForRuns(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.runWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("Timed out waiting for dispatched runs to finish.")
	}
}

// FlowInfos snapshots every loaded flow for the control API and the flows
// command. Next fire times are computed from the cron expression so the
// snapshot is accurate whether or not a scheduler is running.
func (a *App) FlowInfos() []api.FlowInfo {
	infos := make([]api.FlowInfo, 0, len(a.config.Flows))
	now := time.Now()
	for _, flow := range a.config.Flows {
		info := api.FlowInfo{
			Name:        flow.Name,
			Description: flow.Description,
			Steps:       len(flow.Steps),
		}
		if flow.Trigger != nil {
			info.Schedule = flow.Trigger.Schedule
			info.Manual = flow.Trigger.Manual
		}
		if info.Schedule != "" {
			if times, err := scheduler.NextTimes(info.Schedule, now, 3); err == nil {
				info.NextRuns = times
			}
		}
		infos = append(infos, info)
	}
	return infos
}

// Validate checks every loaded flow without executing anything: cron
// expressions must parse, every step's runner type must be registered, and
// each flow's dependency graph must build cleanly.
func (a *App) Validate(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	for _, flow := range a.config.Flows {
		if flow.Trigger != nil && flow.Trigger.Schedule != "" {
			if _, err := scheduler.NextTimes(flow.Trigger.Schedule, time.Now(), 1); err != nil {
				return fmt.Errorf("flow %q: %w", flow.Name, err)
			}
		}
		for _, step := range flow.Steps {
			if _, ok := a.registry.RunnerDefs[step.RunnerType]; !ok {
				return fmt.Errorf("flow %q: step %q uses unknown runner type %q", flow.Name, step.Name, step.RunnerType)
			}
		}
		if _, err := dag.Build(ctx, a.config, flow, a.registry); err != nil {
			return fmt.Errorf("flow %q: %w", flow.Name, err)
		}
	}
	return nil
}
