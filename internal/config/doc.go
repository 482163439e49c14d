// Package config defines the format-agnostic configuration model for the
// engine. A Loader implementation (currently HCL) translates user files into
// this model; everything downstream of loading (graph building, execution,
// scheduling) depends only on the types in this package, never on a concrete
// file format.
package config
