// Package registry wires manifest declarations to compiled Go handlers.
//
// Every module ships two halves: an HCL manifest declaring its runners and
// assets (inputs, outputs, lifecycle handler names) and the Go functions
// implementing them. The registry stores both halves, keyed by the handler
// names the manifests reference, and startup validation proves they agree:
// each declared input must exist as a field on the handler's input struct
// and each lifecycle name must resolve to a registered function. A flow
// file can then be checked against the manifests alone, before any handler
// runs.
package registry
