// Package exec provides the subprocess runner every script-shaped step
// builds on.
package exec

import (
	"context"
	_ "embed"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the exec runner.
type Input struct {
	Command string            `flowgo:"command"`
	Args    []string          `flowgo:"args"`
	Dir     string            `flowgo:"dir"`
	Env     map[string]string `flowgo:"env"`
	Capture bool              `flowgo:"capture"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// Output is the result an exec step exposes to later steps.
type Output struct {
	Stdout     string `cty:"stdout"`
	Stderr     string `cty:"stderr"`
	ExitCode   int64  `cty:"exit_code"`
	DurationMs int64  `cty:"duration_ms"`
}

// OnRunExec is the handler for the 'exec' runner's on_run lifecycle event.
func OnRunExec(ctx context.Context, _ *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Info("Running command.", "command", input.Command, "args", input.Args, "dir", input.Dir)

	out, err := Run(ctx, Spec{
		Command: input.Command,
		Args:    input.Args,
		Dir:     input.Dir,
		Env:     input.Env,
		Capture: input.Capture,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Command finished.", "duration_ms", out.DurationMs)
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunExec", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunExec,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
