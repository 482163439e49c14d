// Package hcl parses flow and manifest files and binds their expressions to
// Go values.
//
// It implements the config.Loader and config.Converter interfaces: the
// loader turns .hcl files into the format-agnostic model, and the converter
// evaluates step arguments against a run's eval context, decoding them into
// handler input structs and converting handler outputs back to cty for
// downstream expressions.
package hcl
