package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/nodeid"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

// Build constructs a complete, validated dependency graph for one flow.
func Build(ctx context.Context, model *config.Model, flow *config.Flow, r *registry.Registry) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "flow", flow.Name)
	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: create all nodes for the flow's steps and the declared resources.
	if err := createNodes(ctx, model, flow, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: chain steps sequentially, then link declared dependencies.
	chainSequentialSteps(ctx, flow, graph)
	if err := linkNodes(ctx, flow, graph, r); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node linking complete.")

	// Third pass: drop resources no step ended up referencing.
	pruneUnusedResources(ctx, graph)

	for _, node := range graph.Nodes {
		node.SetInitialCounters()
	}
	logger.Debug("Build: Counter initialization complete.")

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.")

	logger.Debug("Build: Graph construction successful.")
	return graph, nil
}

// createNodes performs the first pass of graph creation.
func createNodes(ctx context.Context, model *config.Model, flow *config.Flow, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)
	for _, s := range flow.Steps {
		addr := nodeid.NewStep(s.RunnerType, s.Name)
		id := addr.String()
		if _, exists := graph.Nodes[id]; exists {
			return fmt.Errorf("flow %q declares step %q more than once", flow.Name, id)
		}
		graph.Nodes[id] = newStepNode(addr, s)
		logger.Debug("Created step node.", "id", id)
	}
	for _, r := range model.Resources {
		addr := nodeid.NewResource(r.AssetType, r.Name)
		id := addr.String()
		if _, exists := graph.Nodes[id]; exists {
			return fmt.Errorf("resource %q declared more than once", id)
		}
		graph.Nodes[id] = newResourceNode(addr, r)
		logger.Debug("Created resource node.", "id", id)
	}
	return nil
}

// chainSequentialSteps links each step without an explicit depends_on to the
// step declared before it. This gives flows the sequential semantics of a
// job's step list while leaving explicitly wired steps free to fan out.
func chainSequentialSteps(ctx context.Context, flow *config.Flow, graph *Graph) {
	logger := ctxlog.FromContext(ctx)
	for i := 1; i < len(flow.Steps); i++ {
		step := flow.Steps[i]
		if len(step.DependsOn) > 0 {
			continue
		}
		node := graph.Nodes[step.ID()]
		prev := graph.Nodes[flow.Steps[i-1].ID()]
		logger.Debug("Chaining step to its predecessor.", "from", node.ID, "to", prev.ID)
		node.link(prev)
	}
}

// pruneUnusedResources removes resource nodes nothing depends on. Resources
// are created lazily, so a declared resource only joins the graph when at
// least one step references it. Pruning iterates because a resource may only
// be referenced by another pruned resource.
func pruneUnusedResources(ctx context.Context, graph *Graph) {
	logger := ctxlog.FromContext(ctx)
	for {
		pruned := false
		for id, node := range graph.Nodes {
			if node.Type != ResourceNode || len(node.Dependents) > 0 {
				continue
			}
			logger.Debug("Pruning unreferenced resource node.", "id", id)
			for _, dep := range node.Deps {
				delete(dep.Dependents, id)
			}
			delete(graph.Nodes, id)
			pruned = true
		}
		if !pruned {
			return
		}
	}
}

// detectCycles rejects graphs where a chain of dependencies loops back on
// itself. The error names every node on the loop, not just one edge of it.
func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		inProgress
		finished
	)
	marks := make(map[string]int, len(g.Nodes))

	var path []string
	var walk func(n *Node) error
	walk = func(n *Node) error {
		marks[n.ID] = inProgress
		path = append(path, n.ID)
		for _, dep := range n.Deps {
			switch marks[dep.ID] {
			case inProgress:
				start := 0
				for i, id := range path {
					if id == dep.ID {
						start = i
						break
					}
				}
				loop := append(append([]string(nil), path[start:]...), dep.ID)
				return fmt.Errorf("dependency cycle detected: %s", strings.Join(loop, " -> "))
			case unvisited:
				if err := walk(dep); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		marks[n.ID] = finished
		return nil
	}

	for _, n := range g.Nodes {
		if marks[n.ID] == unvisited {
			if err := walk(n); err != nil {
				return err
			}
		}
	}
	return nil
}
