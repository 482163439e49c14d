package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader turns configuration in some concrete format into the Model the
// engine runs on. The HCL implementation lives in internal/hcl.
type Loader interface {
	// Load reads flow files from the given paths (files or directories)
	// and returns the model together with the Converter that knows how to
	// decode its expressions later.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)

	// LoadManifest parses a single in-memory module manifest and merges its
	// definitions into the model. Built-in modules ship their manifests
	// embedded in the binary and are loaded through this path.
	LoadManifest(ctx context.Context, filename string, src []byte, model *Model) error
}

// Converter is the run-time half of a Loader: it binds raw argument
// expressions to module input structs and carries Go handler outputs back
// into the expression world.
type Converter interface {
	// DecodeBody evaluates a step or resource arguments block against
	// evalCtx and fills inputStruct, applying manifest defaults where an
	// argument is absent.
	DecodeBody(
		ctx context.Context,
		inputStruct any,
		args map[string]hcl.Expression,
		defs map[string]*InputDefinition,
		evalCtx *hcl.EvalContext,
	) error

	// ToCtyValue lifts a handler's native Go return value into a cty.Value
	// that later steps can reference.
	ToCtyValue(v any) (cty.Value, error)
}
