// internal/nodeid/address.go
package nodeid

// String serializes the Address into its canonical string representation.
func (a Address) String() string {
	return string(a.Kind) + "." + a.Type + "." + a.Name
}

// Equal checks for equality between two addresses.
func (a Address) Equal(other Address) bool {
	return a == other
}
