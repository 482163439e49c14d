// Package print provides a runner that logs an arbitrary value, typically a
// previous step's output, for debugging a flow.
package print

import (
	"context"
	_ "embed"
	"fmt"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the print runner. The value keeps its cty
// form so any type can pass through.
type Input struct {
	Value cty.Value `flowgo:"input"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// OnRunPrint is the handler for the 'print' runner's on_run lifecycle event.
func OnRunPrint(ctx context.Context, _ *Deps, input *Input) (any, error) {
	text := formatValue(input.Value)
	if bundle := secrets.BundleFrom(ctx); bundle != nil {
		text = bundle.Mask(text)
	}
	ctxlog.FromContext(ctx).Debug("Printing value.")
	fmt.Println(text)
	return nil, nil
}

// formatValue renders a cty value for human eyes: strings print bare,
// everything else as JSON.
func formatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	if v.Type().Equals(cty.String) {
		return v.AsString()
	}
	out, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(out)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunPrint", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunPrint,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
