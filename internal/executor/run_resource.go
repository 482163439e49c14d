package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
)

// runResourceNode creates a stateful resource instance and arranges its
// teardown. The destroy handler is resolved up front so a flow never gets a
// resource it cannot tear down.
func (e *Executor) runResourceNode(ctx context.Context, node *dag.Node) error {
	logger := ctxlog.FromContext(ctx).With("resource", node.ID)
	logger.Info("▶️ Creating resource")

	def, ok := e.registry.AssetDefs[node.ResourceConfig.AssetType]
	if !ok {
		return fmt.Errorf("unknown asset type '%s'", node.ResourceConfig.AssetType)
	}

	create, ok := e.registry.AssetHandlers[def.Lifecycle.Create]
	if !ok || create.CreateFn == nil {
		return fmt.Errorf("create handler '%s' not registered", def.Lifecycle.Create)
	}
	destroy, ok := e.registry.AssetHandlers[def.Lifecycle.Destroy]
	if !ok || destroy.DestroyFn == nil {
		return fmt.Errorf("destroy handler '%s' not registered", def.Lifecycle.Destroy)
	}

	evalCtx := e.buildEvalContext(ctx, node)
	inputStruct := create.NewInput()
	if inputStruct != nil {
		err := e.converter.DecodeBody(ctx, inputStruct, node.ResourceConfig.Arguments, def.Inputs, evalCtx)
		if err != nil {
			return fmt.Errorf("failed to decode arguments for resource %s: %w", node.ID, err)
		}
	}

	logger.Debug("Calling resource create handler.", "handler", def.Lifecycle.Create)
	fn := reflect.ValueOf(create.CreateFn)
	instance, err := callHandler(fn, reflect.ValueOf(ctx), inputArg(fn, 1, inputStruct))
	if err != nil {
		return err
	}

	node.Output = instance
	e.resourceInstances.Store(node.ID, instance)
	e.pushCleanup(node, func() {
		logger.Info("🔥 Destroying resource")
		reflect.ValueOf(destroy.DestroyFn).Call([]reflect.Value{reflect.ValueOf(instance)})
		e.resourceInstances.Delete(node.ID)
	})

	logger.Info("✅ Resource created")
	return nil
}
