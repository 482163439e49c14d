package registry

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredRunner is the compiled side of a runner: constructors for its
// input and deps structs, the concrete input type for manifest parity
// checks, and the on_run function itself.
type RegisteredRunner struct {
	NewInput  func() any
	InputType reflect.Type
	NewDeps   func() any
	Fn        any
}

// RegisterRunner records a runner handler under the name its manifest
// references. Registering the same name twice is a programming error and
// panics at startup.
func (r *Registry) RegisterRunner(name string, handler *RegisteredRunner) {
	if _, exists := r.RunnerHandlers[name]; exists {
		panic(fmt.Sprintf("duplicate runner handler %q", name))
	}
	slog.Debug("Runner handler registered.", "name", name)
	r.RunnerHandlers[name] = handler
}

// RegisteredAsset is the compiled side of an asset lifecycle. Create and
// destroy register separately, so a given instance carries whichever
// functions its manifest names.
type RegisteredAsset struct {
	NewInput  func() any
	InputType reflect.Type
	CreateFn  any
	DestroyFn any
}

// RegisterAssetHandler records an asset lifecycle handler under the name its
// manifest references. Duplicate names panic at startup.
func (r *Registry) RegisterAssetHandler(name string, handler *RegisteredAsset) {
	if _, exists := r.AssetHandlers[name]; exists {
		panic(fmt.Sprintf("duplicate asset handler %q", name))
	}
	slog.Debug("Asset handler registered.", "name", name)
	r.AssetHandlers[name] = handler
}

// RegisterAssetInterface records the Go type a step's uses block receives
// for the given asset type.
func (r *Registry) RegisterAssetInterface(assetType string, iface reflect.Type) {
	if _, exists := r.AssetContracts[assetType]; exists {
		panic(fmt.Sprintf("duplicate asset contract for type %q", assetType))
	}
	slog.Debug("Asset contract registered.", "asset_type", assetType, "interface", iface.String())
	r.AssetContracts[assetType] = iface
}
