// Package executor runs a built graph to completion on a worker pool.
//
// Execution is fail-fast: the first real error cancels the run context,
// skips every downstream node, and is surfaced as the run's root cause.
// Steps marked continue_on_error record their failure without aborting the
// run. Resources are destroyed as soon as their last dependent finishes,
// with a final cleanup sweep covering anything left over.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

// Executor orchestrates the concurrent execution of a single graph.
type Executor struct {
	graph      *dag.Graph
	numWorkers int
	registry   *registry.Registry
	converter  config.Converter
	baseVars   map[string]cty.Value

	wg                sync.WaitGroup
	resourceInstances sync.Map

	cleanupMu    sync.Mutex
	cleanupStack []cleanupEntry
}

// cleanupEntry pairs a resource node with its registered destroy closure.
type cleanupEntry struct {
	node *dag.Node
	fn   func()
}

// New creates an executor for the given graph. The worker count is clamped
// to a minimum of one. vars holds extra root variables, such as the `flow`
// namespace, merged into every evaluation context; nil is fine.
func New(graph *dag.Graph, workers int, r *registry.Registry, converter config.Converter, vars map[string]cty.Value) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:      graph,
		numWorkers: workers,
		registry:   r,
		converter:  converter,
		baseVars:   vars,
	}
}

// Run executes the entire graph concurrently and returns an error if any node
// fails. It respects the cancellation signal from the provided context.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	defer e.executeCleanupStack(ctx)

	readyChan := make(chan *dag.Node, len(e.graph.Nodes))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Initializing executor, finding root nodes...")
	rootNodeCount := 0
	for _, node := range e.graph.Nodes {
		if node.DepCount() == 0 {
			logger.Debug("Found root node.", "nodeID", node.ID)
			readyChan <- node
			rootNodeCount++
		}
	}
	logger.Debug("Found all root nodes.", "count", rootNodeCount)

	e.wg.Add(len(e.graph.Nodes))

	logger.Debug("Starting worker pool.", "workers", e.numWorkers)
	for i := 0; i < e.numWorkers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Debug("Waiting for all nodes to complete...")
	e.wg.Wait()
	logger.Debug("All nodes completed.")
	close(readyChan)

	var failedNodes []string
	var rootCauseError error
	for _, node := range e.graph.Nodes {
		if node.GetState() != dag.Failed {
			continue
		}
		logger.Error("Node failed execution.", "nodeID", node.ID, "error", node.Error)
		// A "skipped" error is a symptom, not a cause.
		if node.Error != nil && !strings.HasPrefix(node.Error.Error(), "skipped") && !errors.Is(node.Error, context.Canceled) {
			failedNodes = append(failedNodes, node.ID)
			// Prioritize the first real error as the root cause.
			if rootCauseError == nil {
				rootCauseError = node.Error
			}
		}
	}

	if rootCauseError != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failedNodes, ", "), rootCauseError)
	}

	return nil
}

// skipDependents recursively marks all downstream nodes as failed and
// decrements the WaitGroup.
func (e *Executor) skipDependents(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	for _, dependent := range node.Dependents {
		dep := dependent
		if dep.Skip(fmt.Errorf("skipped due to upstream failure of '%s'", node.ID), &e.wg) {
			logger.Warn("Skipping dependent node due to upstream failure.", "nodeID", dep.ID, "dependency", node.ID)
			e.skipDependents(ctx, dep)
		}
	}
}

// pushCleanup registers a resource's destroy closure for deferred teardown.
func (e *Executor) pushCleanup(node *dag.Node, fn func()) {
	e.cleanupMu.Lock()
	defer e.cleanupMu.Unlock()
	e.cleanupStack = append(e.cleanupStack, cleanupEntry{node: node, fn: fn})
}

// destroyResource tears a resource down as soon as its last dependent is done.
func (e *Executor) destroyResource(ctx context.Context, node *dag.Node) {
	logger := ctxlog.FromContext(ctx)
	e.cleanupMu.Lock()
	var fn func()
	for _, entry := range e.cleanupStack {
		if entry.node == node {
			fn = entry.fn
			break
		}
	}
	e.cleanupMu.Unlock()

	if fn == nil {
		logger.Debug("No destroy closure registered for resource.", "resourceID", node.ID)
		return
	}
	node.Destroy(fn)
}

// executeCleanupStack destroys any remaining resources in reverse creation
// order. Resources already destroyed by the efficient path are no-ops here.
func (e *Executor) executeCleanupStack(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	e.cleanupMu.Lock()
	entries := make([]cleanupEntry, len(e.cleanupStack))
	copy(entries, e.cleanupStack)
	e.cleanupMu.Unlock()

	if len(entries) > 0 {
		logger.Debug("Running cleanup stack.", "entries", len(entries))
	}
	for i := len(entries) - 1; i >= 0; i-- {
		entries[i].node.Destroy(entries[i].fn)
	}
}
