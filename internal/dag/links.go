package dag

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/nodeid"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// linkNodes performs the second pass, establishing dependency links.
func linkNodes(ctx context.Context, flow *config.Flow, graph *Graph, r *registry.Registry) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting node linking pass.", "flow", flow.Name)

	for _, node := range graph.Nodes {
		var dependsOn []string
		var expressions []hcl.Expression

		if node.Type == StepNode {
			dependsOn = node.StepConfig.DependsOn
			for _, expr := range node.StepConfig.Arguments {
				expressions = append(expressions, expr)
			}
			for _, expr := range node.StepConfig.Uses {
				expressions = append(expressions, expr)
			}
		} else {
			dependsOn = node.ResourceConfig.DependsOn
			for _, expr := range node.ResourceConfig.Arguments {
				expressions = append(expressions, expr)
			}
		}

		if err := linkExplicitDeps(ctx, node, dependsOn, graph); err != nil {
			return err
		}
		for _, expr := range expressions {
			if err := linkImplicitDeps(ctx, node, expr, graph, r); err != nil {
				return err
			}
		}
	}
	logger.Debug("Finished node linking pass.")
	return nil
}

// linkExplicitDeps resolves dependencies from a depends_on list. References
// use the short `type.name` form and resolve against steps first, then
// resources.
func linkExplicitDeps(ctx context.Context, node *Node, dependsOn []string, graph *Graph) error {
	baseLogger := ctxlog.FromContext(ctx)

	for _, ref := range dependsOn {
		logger := baseLogger.With("node_id", node.ID, "depends_on", ref)

		refType, refName, err := nodeid.ParseRef(ref)
		if err != nil {
			return fmt.Errorf("node '%s': %w", node.ID, err)
		}

		stepID := nodeid.NewStep(refType, refName).String()
		if depNode, found := graph.Nodes[stepID]; found {
			logger.Debug("Resolved explicit dependency on step.", "to_node_id", depNode.ID)
			node.link(depNode)
			continue
		}

		resourceID := nodeid.NewResource(refType, refName).String()
		if depNode, found := graph.Nodes[resourceID]; found {
			logger.Debug("Resolved explicit dependency on resource.", "to_node_id", depNode.ID)
			node.link(depNode)
			continue
		}

		return fmt.Errorf("node '%s' depends on non-existent identifier '%s'", node.ID, ref)
	}
	return nil
}

// linkImplicitDeps parses an expression for variable traversals to create
// dependency links. Traversals rooted at `secrets`, `env`, and `flow`
// resolve from the run context rather than other nodes, so they never
// create edges.
func linkImplicitDeps(ctx context.Context, node *Node, expr hcl.Expression, graph *Graph, r *registry.Registry) error {
	baseLogger := ctxlog.FromContext(ctx)

	for _, traversal := range expr.Variables() {
		logger := baseLogger.With("node_id", node.ID, "traversal", renderTraversal(traversal))

		if len(traversal) < 3 {
			continue
		}

		typeAttr, typeOk := traversal[1].(hcl.TraverseAttr)
		nameAttr, nameOk := traversal[2].(hcl.TraverseAttr)
		if !typeOk || !nameOk {
			continue
		}

		switch traversal.RootName() {
		case "step":
			depID := nodeid.NewStep(typeAttr.Name, nameAttr.Name).String()
			depNode, found := graph.Nodes[depID]
			if !found {
				return fmt.Errorf("implicit dependency error in '%s': referenced step '%s' does not exist", node.ID, depID)
			}
			if err := validateOutputReference(traversal, depNode, r); err != nil {
				return err
			}
			logger.Debug("Linking implicit dependency.", "from", node.ID, "to", depID)
			node.link(depNode)

		case "resource":
			depID := nodeid.NewResource(typeAttr.Name, nameAttr.Name).String()
			depNode, found := graph.Nodes[depID]
			if !found {
				return fmt.Errorf("implicit dependency error in '%s': referenced resource '%s' does not exist", node.ID, depID)
			}
			logger.Debug("Linking implicit dependency.", "from", node.ID, "to", depID)
			node.link(depNode)
		}
	}
	return nil
}

// validateOutputReference checks if a reference to a step's output is valid
// against the runner's declared outputs.
func validateOutputReference(traversal hcl.Traversal, depNode *Node, r *registry.Registry) error {
	if depNode.Type != StepNode || len(traversal) < 5 {
		return nil
	}

	attrKind, ok := traversal[3].(hcl.TraverseAttr)
	if !ok || attrKind.Name != "output" {
		return nil
	}
	outputNameAttr, ok := traversal[4].(hcl.TraverseAttr)
	if !ok {
		return nil
	}
	outputName := outputNameAttr.Name

	runnerDef, ok := r.RunnerDefs[depNode.StepConfig.RunnerType]
	if !ok {
		return fmt.Errorf("internal error: could not find definition for runner type %s", depNode.StepConfig.RunnerType)
	}

	if _, ok := runnerDef.Outputs[outputName]; ok {
		return nil
	}

	return fmt.Errorf("reference to undeclared output %q on step %q", outputName, depNode.ID)
}

// renderTraversal prints a traversal the way it appears in a flow file, for
// log messages about implicit dependencies.
func renderTraversal(t hcl.Traversal) string {
	var parts []string
	appendToLast := func(s string) {
		if len(parts) == 0 {
			parts = append(parts, s)
			return
		}
		parts[len(parts)-1] += s
	}
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			parts = append(parts, s.Name)
		case hcl.TraverseAttr:
			parts = append(parts, s.Name)
		case hcl.TraverseIndex:
			appendToLast("[" + renderIndexKey(s.Key) + "]")
		default:
			parts = append(parts, "?")
		}
	}
	return strings.Join(parts, ".")
}

func renderIndexKey(key cty.Value) string {
	switch key.Type() {
	case cty.String:
		return fmt.Sprintf("%q", key.AsString())
	case cty.Number:
		return key.AsBigFloat().Text('f', -1)
	default:
		return "?"
	}
}
