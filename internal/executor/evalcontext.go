package executor

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
	"github.com/zclconf/go-cty/cty"
)

// buildEvalContext creates the HCL evaluation context for a node. It exposes
// the executor's base variables (typically the `flow` namespace) plus three
// run namespaces: `step` for the outputs of completed steps, `secrets` for
// the run's resolved secret bundle, and `env` for the run environment.
func (e *Executor) buildEvalContext(ctx context.Context, node *dag.Node) *hcl.EvalContext {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building HCL evaluation context.", "node", node.ID)
	vars := make(map[string]cty.Value)
	for name, val := range e.baseVars {
		vars[name] = val
	}

	// Collect outputs from all successfully completed steps in the graph,
	// wrapped as step.<runner_type>.<name>.output.
	outputsByType := make(map[string]map[string]cty.Value)
	for _, graphNode := range e.graph.Nodes {
		if graphNode.Type != dag.StepNode || graphNode.GetState() != dag.Done || graphNode.Output == nil {
			continue
		}
		ctyOutput, ok := graphNode.Output.(cty.Value)
		if !ok {
			continue
		}

		runnerType := graphNode.StepConfig.RunnerType
		if _, ok := outputsByType[runnerType]; !ok {
			outputsByType[runnerType] = make(map[string]cty.Value)
		}
		outputsByType[runnerType][graphNode.StepConfig.Name] = cty.ObjectVal(map[string]cty.Value{
			"output": ctyOutput,
		})
	}

	finalStepOutputs := make(map[string]cty.Value)
	for runnerType, instances := range outputsByType {
		finalStepOutputs[runnerType] = cty.ObjectVal(instances)
	}
	vars["step"] = cty.ObjectVal(finalStepOutputs)

	if bundle := secrets.BundleFrom(ctx); bundle != nil {
		vars["secrets"] = ctyStringObject(bundle.Values())
	}
	if runEnv := secrets.RunEnvFrom(ctx); runEnv != nil {
		vars["env"] = ctyStringObject(runEnv)
	}

	logger.Debug("Finished building HCL evaluation context.", "node", node.ID)
	return &hcl.EvalContext{Variables: vars}
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
