package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for node := range readyChan {
		workerLogger := logger.With("workerID", workerID, "nodeID", node.ID)

		if ctx.Err() != nil {
			if node.Skip(ctx.Err(), &e.wg) {
				workerLogger.Warn("Context canceled, skipping node execution.")
			}
			continue
		}

		workerLogger.Debug("Worker picked up node for execution.")
		node.SetState(dag.Running)
		node.StartedAt = time.Now()

		err := e.runNode(ctx, node)
		node.FinishedAt = time.Now()

		if err != nil {
			if node.Type == dag.StepNode && node.StepConfig.ContinueOnError {
				workerLogger.Warn("Step failed, continuing because continue_on_error is set.", "error", err)
				node.Error = err
			} else {
				workerLogger.Error("Node execution failed.", "error", err)
				node.SetState(dag.Failed)
				node.Error = err
				cancel()
				e.skipDependents(ctx, node)
				e.wg.Done()
				continue
			}
		} else {
			workerLogger.Debug("Node execution succeeded.")
		}
		node.SetState(dag.Done)

		for _, dependent := range node.Dependents {
			if dependent.DecrementDepCount() == 0 {
				workerLogger.Debug("Unlocking dependent node.", "dependentID", dependent.ID)
				readyChan <- dependent
			}
		}

		if node.Type == dag.StepNode {
			for _, dep := range node.Deps {
				if dep.Type == dag.ResourceNode {
					if dep.DecrementDescendantCount() == 0 {
						workerLogger.Debug("Scheduling efficient destruction for resource.", "resourceID", dep.ID)
						go e.destroyResource(ctx, dep)
					}
				}
			}
		}

		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// runNode dispatches a node to its type-specific runner, applying the step's
// timeout to the handler context when one is configured.
func (e *Executor) runNode(ctx context.Context, node *dag.Node) error {
	if node.Type == dag.ResourceNode {
		return e.runResourceNode(ctx, node)
	}

	if node.StepConfig.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, node.StepConfig.Timeout)
		defer cancel()
	}
	return e.runStepNode(ctx, node)
}
