package registry

import (
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/config"
)

// Module is one registrable unit: Register wires its Go handlers into the
// registry and Manifest returns the embedded HCL contract those handlers
// must satisfy.
type Module interface {
	Register(r *Registry)
	Manifest() []byte
}

// Registry holds both halves of every module: the compiled handlers, keyed
// by the names manifests reference, and the translated manifest definitions,
// keyed by runner or asset type.
type Registry struct {
	RunnerHandlers map[string]*RegisteredRunner
	AssetHandlers  map[string]*RegisteredAsset
	RunnerDefs     map[string]*config.RunnerDefinition
	AssetDefs      map[string]*config.AssetDefinition
	// AssetContracts records the Go type steps receive when they use a
	// resource of the given asset type.
	AssetContracts map[string]reflect.Type
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		RunnerHandlers: make(map[string]*RegisteredRunner),
		AssetHandlers:  make(map[string]*RegisteredAsset),
		RunnerDefs:     make(map[string]*config.RunnerDefinition),
		AssetDefs:      make(map[string]*config.AssetDefinition),
		AssetContracts: make(map[string]reflect.Type),
	}
}

// AdoptDefinitions copies the translated runner and asset definitions out of
// a loaded model so graph building and execution can look them up by type.
func (r *Registry) AdoptDefinitions(model *config.Model) {
	for key, val := range model.Runners {
		r.RunnerDefs[key] = val
	}
	for key, val := range model.Assets {
		r.AssetDefs[key] = val
	}
}
