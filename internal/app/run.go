package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/specialistvlad/flowgridgo/internal/executor"
	"github.com/specialistvlad/flowgridgo/internal/history"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// RunFlow executes a single flow to completion and returns its run ID. The
// run is recorded in the history store regardless of outcome.
func (a *App) RunFlow(ctx context.Context, flowName, trigger string) (string, error) {
	flow, ok := a.config.Flow(flowName)
	if !ok {
		return "", fmt.Errorf("flow %q is not defined", flowName)
	}
	runID := uuid.NewString()
	return runID, a.executeFlow(ctx, flow, runID, trigger)
}

// DispatchAsync starts a manual flow run in the background and returns its
// run ID immediately. The run detaches from the caller's context so that a
// disconnecting HTTP client cannot cancel it mid-flight.
func (a *App) DispatchAsync(flowName string) (string, error) {
	flow, ok := a.config.Flow(flowName)
	if !ok {
		return "", fmt.Errorf("flow %q is not defined", flowName)
	}
	runID := uuid.NewString()

	a.runWG.Add(1)
	go func() {
		defer a.runWG.Done()
		ctx := ctxlog.WithLogger(context.Background(), a.logger)
		if err := a.executeFlow(ctx, flow, runID, history.TriggerManual); err != nil {
			a.logger.Error("Dispatched flow run failed.", "flow", flowName, "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

// executeFlow drives one run through its full lifecycle: record the start,
// resolve secrets, build the graph, execute it, and record the per-step and
// overall outcomes.
func (a *App) executeFlow(ctx context.Context, flow *config.Flow, runID, trigger string) error {
	logger := a.logger.With("flow", flow.Name, "run_id", runID, "trigger", trigger)
	ctx = ctxlog.WithLogger(ctx, logger)
	startedAt := time.Now().UTC()
	logger.Info("🚀 Starting flow run.")

	run := &history.Run{
		ID:        runID,
		FlowName:  flow.Name,
		Trigger:   trigger,
		Status:    history.RunStatusRunning,
		StartedAt: startedAt,
	}
	if err := a.store.RecordStart(ctx, run); err != nil {
		logger.Warn("Failed to record run start.", "error", err)
	}

	runErr := a.runGraph(ctx, flow, runID)

	status := history.RunStatusSuccess
	var errText string
	if runErr != nil {
		status = history.RunStatusFailed
		errText = runErr.Error()
	}
	if err := a.store.RecordFinish(ctx, runID, status, errText, time.Now().UTC()); err != nil {
		logger.Warn("Failed to record run finish.", "error", err)
	}

	logger.Info("🏁 Flow run finished.", "status", status, "duration", time.Since(startedAt).String())
	return runErr
}

// runGraph performs the executable part of a run. It is separated from
// executeFlow so that every exit path still records the run's outcome.
func (a *App) runGraph(ctx context.Context, flow *config.Flow, runID string) error {
	logger := ctxlog.FromContext(ctx)

	bundle, err := secrets.Resolve(ctx, flow.SecretKeys, a.providers...)
	if err != nil {
		return fmt.Errorf("secrets check failed: %w", err)
	}
	ctx = secrets.WithBundle(ctx, bundle)

	runEnv, err := buildRunEnv(flow, bundle)
	if err != nil {
		return err
	}
	ctx = secrets.WithRunEnv(ctx, runEnv)

	logger.Debug("Building dependency graph from config model...")
	graph, err := dag.Build(ctx, a.config, flow, a.registry)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	if len(graph.Nodes) == 0 {
		logger.Warn("No nodes found in graph, execution not required.")
		return nil
	}

	exec := executor.New(graph, a.cfg.WorkerCount, a.registry, a.converter, flowVariables(flow, runID))
	runErr := exec.Run(ctx)

	if err := a.store.RecordSteps(ctx, collectStepResults(graph, flow, runID)); err != nil {
		logger.Warn("Failed to record step results.", "error", err)
	}
	if runErr != nil {
		return fmt.Errorf("execution failed: %w", runErr)
	}
	return nil
}

// flowVariables builds the `flow` namespace exposed to every expression in a
// run: the flow's name, its working directory, and the current run ID.
func flowVariables(flow *config.Flow, runID string) map[string]cty.Value {
	return map[string]cty.Value{
		"flow": cty.ObjectVal(map[string]cty.Value{
			"name":    cty.StringVal(flow.Name),
			"workdir": cty.StringVal(flow.Workdir),
			"run_id":  cty.StringVal(runID),
		}),
	}
}

// buildRunEnv evaluates the flow's env block and merges the secret bundle
// over it. Env expressions may reference secrets; on a key collision the
// secret value wins so a flow cannot shadow a secret with a plain value.
func buildRunEnv(flow *config.Flow, bundle *secrets.Bundle) (map[string]string, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"secrets": ctyStringObject(bundle.Values()),
		},
	}

	runEnv := make(map[string]string, len(flow.Env)+bundle.Len())
	for name, expr := range flow.Env {
		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate env attribute %q for flow %q: %w", name, flow.Name, diags)
		}
		strVal, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("env attribute %q for flow %q is not a string: %w", name, flow.Name, err)
		}
		runEnv[name] = strVal.AsString()
	}
	for key, value := range bundle.Values() {
		runEnv[key] = value
	}
	return runEnv, nil
}

// ctyStringObject converts a string map into a cty object value.
func ctyStringObject(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.EmptyObjectVal
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.ObjectVal(vals)
}

// collectStepResults translates the graph's terminal node states into step
// history records, in flow declaration order.
func collectStepResults(graph *dag.Graph, flow *config.Flow, runID string) []*history.StepResult {
	results := make([]*history.StepResult, 0, len(flow.Steps))
	for _, step := range flow.Steps {
		node, ok := graph.Nodes[step.ID()]
		if !ok {
			continue
		}
		result := &history.StepResult{
			RunID:      runID,
			StepID:     node.ID,
			StartedAt:  node.StartedAt,
			FinishedAt: node.FinishedAt,
		}
		switch node.GetState() {
		case dag.Done:
			result.Status = history.StepStatusDone
			if node.Error != nil {
				result.Error = node.Error.Error()
			}
		case dag.Failed:
			result.Status = history.StepStatusFailed
			if node.Error != nil {
				result.Error = node.Error.Error()
				if strings.HasPrefix(node.Error.Error(), "skipped") || errors.Is(node.Error, context.Canceled) {
					result.Status = history.StepStatusSkipped
				}
			}
		default:
			// Never scheduled, which happens when the run is canceled
			// before the node becomes ready.
			result.Status = history.StepStatusSkipped
		}
		results = append(results, result)
	}
	return results
}
