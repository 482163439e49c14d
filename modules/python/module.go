// Package python provides interpreter invocation sugar over the exec
// runner's subprocess semantics.
package python

import (
	"context"
	_ "embed"
	"fmt"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/modules/exec"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the python runner.
type Input struct {
	Script       string            `flowgo:"script"`
	Args         []string          `flowgo:"args"`
	Interpreter  string            `flowgo:"interpreter"`
	Dir          string            `flowgo:"dir"`
	Env          map[string]string `flowgo:"env"`
	Requirements string            `flowgo:"requirements"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// Output is the result a python step exposes to later steps.
type Output struct {
	Stdout   string `cty:"stdout"`
	ExitCode int64  `cty:"exit_code"`
}

// Argv returns the interpreter invocation a given input composes to.
func Argv(input *Input) (string, []string) {
	return input.Interpreter, append([]string{input.Script}, input.Args...)
}

// OnRunPython is the handler for the 'python' runner's on_run lifecycle
// event. When a requirements file is given, it is installed through the same
// interpreter's pip before the script runs.
func OnRunPython(ctx context.Context, _ *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	if input.Requirements != "" {
		logger.Info("Installing requirements.", "file", input.Requirements, "interpreter", input.Interpreter)
		_, err := exec.Run(ctx, exec.Spec{
			Command: input.Interpreter,
			Args:    []string{"-m", "pip", "install", "--quiet", "-r", input.Requirements},
			Dir:     input.Dir,
			Env:     input.Env,
			Capture: true,
		})
		if err != nil {
			return nil, fmt.Errorf("requirements install failed: %w", err)
		}
	}

	command, args := Argv(input)
	logger.Info("Running script.", "interpreter", command, "script", input.Script, "args", input.Args)
	out, err := exec.Run(ctx, exec.Spec{
		Command: command,
		Args:    args,
		Dir:     input.Dir,
		Env:     input.Env,
		Capture: true,
	})
	if err != nil {
		return nil, err
	}
	return &Output{Stdout: out.Stdout, ExitCode: out.ExitCode}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunPython", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunPython,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
