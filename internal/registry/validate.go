package registry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go code.
// It checks both the presence of inputs and the compatibility of their types,
// for runner and asset definitions alike.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for runnerType, def := range r.RunnerDefs {
		if def.Lifecycle == nil {
			errs = append(errs, fmt.Sprintf("runner '%s': manifest declares no lifecycle", runnerType))
			continue
		}
		handler, ok := r.RunnerHandlers[def.Lifecycle.OnRun]
		if !ok {
			errs = append(errs, fmt.Sprintf("runner '%s': no Go handler registered for lifecycle event '%s'", runnerType, def.Lifecycle.OnRun))
			continue
		}
		errs = append(errs, validateInputParity(logger, "runner", runnerType, def.Inputs, handler.InputType)...)
	}

	for assetType, def := range r.AssetDefs {
		if def.Lifecycle == nil {
			errs = append(errs, fmt.Sprintf("asset '%s': manifest declares no lifecycle", assetType))
			continue
		}
		handler, ok := r.AssetHandlers[def.Lifecycle.Create]
		if !ok {
			errs = append(errs, fmt.Sprintf("asset '%s': no Go handler registered for lifecycle event '%s'", assetType, def.Lifecycle.Create))
			continue
		}
		errs = append(errs, validateInputParity(logger, "asset", assetType, def.Inputs, handler.InputType)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// validateInputParity compares a manifest's declared inputs against the Go
// handler's input struct in both directions.
func validateInputParity(logger *slog.Logger, kind, typeName string, defInputs map[string]*config.InputDefinition, inputType reflect.Type) []string {
	var errs []string

	if inputType == nil {
		if len(defInputs) > 0 {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares inputs, but Go handler has no input struct", kind, typeName))
		}
		return errs
	}

	manifestInputs := make(map[string]struct{})
	for name := range defInputs {
		manifestInputs[name] = struct{}{}
	}

	goInputs := make(map[string]reflect.StructField)
	for i := 0; i < inputType.NumField(); i++ {
		field := inputType.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("flowgo")
		tagName := strings.Split(tag, ",")[0]
		if tagName != "" && tagName != "-" {
			goInputs[tagName] = field
		}
	}

	// Check for presence mismatches
	for name := range goInputs {
		if _, ok := manifestInputs[name]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': Go struct has field for input '%s' which is not declared in manifest", kind, typeName, name))
		}
	}
	for name := range manifestInputs {
		if _, ok := goInputs[name]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares input '%s' which is not found in Go struct", kind, typeName, name))
		}
	}

	// Check for type mismatches
	for name, inputDef := range defInputs {
		goField, ok := goInputs[name]
		if !ok {
			continue // Already handled by presence check
		}

		manifestType := inputDef.Type
		if manifestType.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest input uses 'type = any', which disables static type checking. Consider using a specific type like 'string', 'number', or 'bool'.", "kind", kind, "type", typeName, "input", name)
			continue
		}

		// Infer type from the Go field
		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': could not imply cty type from Go field type %s: %v", kind, typeName, name, goField.Type, err))
			continue
		}

		// The core type check
		if !manifestType.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("%s '%s', input '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides type '%s'",
				kind, typeName, name, manifestType.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	return errs
}
