package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/dag"
	"github.com/specialistvlad/flowgridgo/internal/nodeid"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

// buildDepsStruct fills a handler's deps struct from the step's uses block.
// Each tagged field names a uses key. The referenced resource instance must
// already exist, because graph edges order resource creation ahead of every
// step that uses it.
func (e *Executor) buildDepsStruct(ctx context.Context, node *dag.Node, handler *registry.RegisteredRunner) (any, error) {
	logger := ctxlog.FromContext(ctx)
	depsStruct := handler.NewDeps()

	uses := node.StepConfig.Uses
	if len(uses) == 0 {
		return depsStruct, nil
	}

	depsValue := reflect.ValueOf(depsStruct).Elem()
	depsType := depsValue.Type()

	for i := 0; i < depsValue.NumField(); i++ {
		field := depsType.Field(i)
		tag := field.Tag.Get("flowgo")
		if tag == "" || tag == "-" {
			continue
		}
		key := strings.Split(tag, ",")[0]
		expr, ok := uses[key]
		if !ok {
			continue
		}
		if err := e.injectResource(depsValue.Field(i), field, key, expr, node); err != nil {
			logger.Error("Dependency injection failed.", "step", node.ID, "uses", key, "error", err)
			return nil, err
		}
		logger.Debug("Injected resource dependency.", "step", node.ID, "uses", key)
	}

	return depsStruct, nil
}

// injectResource resolves one uses entry to a live resource instance and
// assigns it to the deps field, checking that the Go types line up.
func (e *Executor) injectResource(target reflect.Value, field reflect.StructField, key string, expr hcl.Expression, node *dag.Node) error {
	vars := expr.Variables()
	if len(vars) != 1 {
		return fmt.Errorf("field '%s' in 'uses' must be a direct reference to one resource", key)
	}
	resourceID, err := resourceRefID(vars[0])
	if err != nil {
		return err
	}

	instance, found := e.resourceInstances.Load(resourceID)
	if !found {
		return fmt.Errorf("step '%s' requires resource '%s', which has not been created", node.ID, resourceID)
	}

	instanceType := reflect.TypeOf(instance)
	if field.Type.Kind() == reflect.Interface {
		if !instanceType.Implements(field.Type) {
			return fmt.Errorf("type mismatch for '%s': resource of type %v does not implement required interface %v", key, instanceType, field.Type)
		}
	} else if !instanceType.AssignableTo(field.Type) {
		return fmt.Errorf("type mismatch for '%s': resource of type %v is not assignable to field of type %v", key, instanceType, field.Type)
	}

	target.Set(reflect.ValueOf(instance))
	return nil
}

// resourceRefID converts a `resource.<type>.<name>` traversal into the
// canonical node ID.
func resourceRefID(v hcl.Traversal) (string, error) {
	if len(v) < 3 || v.RootName() != "resource" {
		return "", fmt.Errorf("expected a 'resource.<type>.<name>' reference, got '%s'", v.RootName())
	}
	typeAttr, typeOk := v[1].(hcl.TraverseAttr)
	nameAttr, nameOk := v[2].(hcl.TraverseAttr)
	if !typeOk || !nameOk {
		return "", fmt.Errorf("expected a 'resource.<type>.<name>' reference")
	}
	return nodeid.NewResource(typeAttr.Name, nameAttr.Name).String(), nil
}
