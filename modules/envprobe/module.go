// Package envprobe provides a diagnostic runner that reads a named subset of
// the ambient environment into a step output. Values that look like
// credentials never leave the step unmasked.
package envprobe

import (
	"context"
	_ "embed"
	"os"
	"reflect"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
)

//go:embed manifest.hcl
var manifestHCL []byte

// maskedValue stands in for any probed value that must not be exposed.
const maskedValue = "[MASKED]"

// secretHints flag key names whose values are masked in the output.
var secretHints = []string{"KEY", "TOKEN", "SECRET", "PASS", "CREDENTIAL"}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the env_probe runner.
type Input struct {
	Keys []string `flowgo:"keys"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	Values map[string]string `cty:"values"`
}

// OnRunEnvProbe is the handler for the 'env_probe' runner's on_run lifecycle
// event. The run environment takes precedence over the process environment,
// so probed values reflect what a subprocess step would actually see.
func OnRunEnvProbe(ctx context.Context, _ *Deps, input *Input) (*Output, error) {
	runEnv := secrets.RunEnvFrom(ctx)
	bundle := secrets.BundleFrom(ctx)

	values := make(map[string]string, len(input.Keys))
	for _, key := range input.Keys {
		value, ok := runEnv[key]
		if !ok {
			value = os.Getenv(key)
		}
		switch {
		case value == "":
			values[key] = ""
		case looksSecret(key):
			values[key] = maskedValue
		case bundle != nil:
			values[key] = bundle.Mask(value)
		default:
			values[key] = value
		}
	}

	ctxlog.FromContext(ctx).Info("Probed environment.", "keys", len(input.Keys))
	return &Output{Values: values}, nil
}

// looksSecret reports whether a key name suggests a credential.
func looksSecret(key string) bool {
	upper := strings.ToUpper(key)
	for _, hint := range secretHints {
		if strings.Contains(upper, hint) {
			return true
		}
	}
	return false
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunEnvProbe", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunEnvProbe,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
