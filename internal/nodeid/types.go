// internal/nodeid/types.go
package nodeid

// Kind identifies the node family an address belongs to.
type Kind string

const (
	// KindStep addresses a runner instance declared with a step block.
	KindStep Kind = "step"
	// KindResource addresses an asset instance declared with a resource block.
	KindResource Kind = "resource"
)

// Address is the structured representation of a unique node identifier.
type Address struct {
	Kind Kind
	Type string
	Name string
}

// NewStep creates the address of a step node.
func NewStep(runnerType, name string) Address {
	return Address{Kind: KindStep, Type: runnerType, Name: name}
}

// NewResource creates the address of a resource node.
func NewResource(assetType, name string) Address {
	return Address{Kind: KindResource, Type: assetType, Name: name}
}
