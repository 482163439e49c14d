// Package httpclient provides a shared HTTP client resource and a request
// runner that uses it.
package httpclient

import (
	_ "embed"
	"net/http"
	"reflect"

	"github.com/specialistvlad/flowgridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the asset handlers, the asset interface, and the
// request runner with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAssetHandler("CreateHttpClient", &registry.RegisteredAsset{
		NewInput:  func() any { return new(AssetInput) },
		InputType: reflect.TypeOf(AssetInput{}),
		CreateFn:  CreateHttpClient,
	})
	r.RegisterAssetHandler("DestroyHttpClient", &registry.RegisteredAsset{
		DestroyFn: DestroyHttpClient,
	})
	r.RegisterAssetInterface("http_client", reflect.TypeOf((*http.Client)(nil)))

	r.RegisterRunner("OnRunHttpRequest", &registry.RegisteredRunner{
		NewInput:  func() any { return new(RequestInput) },
		InputType: reflect.TypeOf(RequestInput{}),
		NewDeps:   func() any { return new(RequestDeps) },
		Fn:        OnRunHttpRequest,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
