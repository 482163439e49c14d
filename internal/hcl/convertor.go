package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter implements config.Converter for HCL-sourced models. It bridges
// deferred HCL expressions and the native Go structs handlers receive.
type Converter struct{}

// NewConverter creates a new HCL value converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeBody evaluates step arguments against the evaluation context and
// populates the handler's input struct. Fields are matched by their flowgo
// struct tag. Arguments without a matching input definition are rejected,
// and required inputs without an argument or default fail the decode.
func (c *Converter) DecodeBody(_ context.Context, inputStruct any, args map[string]hcl.Expression, defs map[string]*config.InputDefinition, evalCtx *hcl.EvalContext) error {
	ptr := reflect.ValueOf(inputStruct)
	if ptr.Kind() != reflect.Pointer || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("input must be a pointer to a struct, got %T", inputStruct)
	}
	structVal := ptr.Elem()
	structType := structVal.Type()

	for name := range args {
		if _, ok := defs[name]; !ok {
			return fmt.Errorf("unsupported argument %q", name)
		}
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tagName, ok := field.Tag.Lookup("flowgo")
		if !ok {
			continue
		}

		def, hasDef := defs[tagName]
		argExpr, hasArg := args[tagName]

		switch {
		case hasArg:
			val, diags := argExpr.Value(evalCtx)
			if diags.HasErrors() {
				return fmt.Errorf("failed to evaluate argument %q: %w", tagName, diags)
			}
			if err := decode(val, structVal.Field(i)); err != nil {
				return fmt.Errorf("argument %q: %w", tagName, err)
			}
		case hasDef && def.Default != nil:
			if err := decode(*def.Default, structVal.Field(i)); err != nil {
				return fmt.Errorf("default for argument %q: %w", tagName, err)
			}
		case hasDef && def.Optional:
			// Zero value stands in for an omitted optional input.
		default:
			return fmt.Errorf("missing required argument %q", tagName)
		}
	}
	return nil
}

// ctyValueType lets decode and ToCtyValue pass raw cty values through for
// handlers that take or return dynamically typed data.
var ctyValueType = reflect.TypeOf(cty.Value{})

// decode converts a single cty value into a native Go struct field.
func decode(val cty.Value, target reflect.Value) error {
	if val.IsNull() {
		return nil
	}
	if target.Type() == ctyValueType {
		target.Set(reflect.ValueOf(val))
		return nil
	}
	impliedType, err := gocty.ImpliedType(reflect.Zero(target.Type()).Interface())
	if err != nil {
		return fmt.Errorf("cannot infer native type: %w", err)
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("type mismatch: %w", err)
	}
	if err := gocty.FromCtyValue(converted, target.Addr().Interface()); err != nil {
		return fmt.Errorf("cannot decode value: %w", err)
	}
	return nil
}

// ToCtyValue converts a native Go value, typically a handler's output
// struct, into its cty representation for use in later evaluation contexts.
func (c *Converter) ToCtyValue(v any) (cty.Value, error) {
	if v == nil {
		return cty.NilVal, nil
	}
	if cv, ok := v.(cty.Value); ok {
		return cv, nil
	}
	impliedType, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot infer cty type for %T: %w", v, err)
	}
	val, err := gocty.ToCtyValue(v, impliedType)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %T to cty value: %w", v, err)
	}
	return val, nil
}
