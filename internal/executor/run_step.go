package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/zclconf/go-cty/cty"
)

// runStepNode decodes a step's inputs, invokes its handler, and publishes
// the output for downstream steps.
func (e *Executor) runStepNode(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("step", node.ID)
	logger.Info("▶️ Starting step")

	def, ok := e.registry.RunnerDefs[node.StepConfig.RunnerType]
	if !ok {
		return fmt.Errorf("unknown runner type '%s'", node.StepConfig.RunnerType)
	}
	handler, ok := e.registry.RunnerHandlers[def.Lifecycle.OnRun]
	if !ok {
		return fmt.Errorf("handler '%s' not registered", def.Lifecycle.OnRun)
	}

	evalCtx := e.buildEvalContext(ctx, node)
	inputStruct := handler.NewInput()
	if inputStruct != nil {
		err := e.converter.DecodeBody(ctx, inputStruct, node.StepConfig.Arguments, def.Inputs, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to decode arguments for step %s: %w", node.ID, err)
		}
	}
	logger.Debug("Step input:", "data", loggable(inputStruct))

	depsStruct, err := e.buildDepsStruct(ctx, node, handler)
	if err != nil {
		return err
	}

	logger.Debug("Calling step run handler.", "handler", def.Lifecycle.OnRun)
	fn := reflect.ValueOf(handler.Fn)
	nativeOutput, err := callHandler(fn, reflect.ValueOf(ctx), reflect.ValueOf(depsStruct), inputArg(fn, 2, inputStruct))
	if err != nil {
		return err
	}

	if nativeOutput != nil {
		ctyOutput, err := e.converter.ToCtyValue(nativeOutput)
		if err != nil {
			return fmt.Errorf("failed to convert handler output for step %s: %w", node.ID, err)
		}
		node.Output = ctyOutput
		logger.Debug("Step output:", "data", loggable(node.Output))
	}

	logger.Info("✅ Finished step")
	return nil
}

// loggable converts a value to a form slog renders cleanly. cty values become
// plain Go maps, slices, and primitives; everything else passes through.
func loggable(v any) any {
	ctyVal, ok := v.(cty.Value)
	if !ok {
		return v
	}
	converted, err := ctyToGo(ctyVal)
	if err != nil {
		return fmt.Sprintf("[unloggable cty.Value: %v]", err)
	}
	return converted
}

// ctyToGo unwraps a cty value into native Go types. Unknown and null values
// become nil.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return val.AsString(), nil
	case ty.Equals(cty.Number):
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty.Equals(cty.Bool):
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, elem := it.Element()
			converted, err := ctyToGo(elem)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = converted
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			converted, err := ctyToGo(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("no Go representation for %s", ty.FriendlyName())
	}
}
