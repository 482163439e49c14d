package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts an HCL type expression (e.g. `string`,
// `list(number)`) into a concrete cty.Type. A nil expression means the
// author omitted the type, which maps to the dynamic pseudo-type.
func typeExprToCtyType(expr hcl.Expression) (cty.Type, error) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}

	switch e := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if len(e.Args) != 1 {
			return cty.NilType, fmt.Errorf("type constructor %q requires exactly one argument", e.Name)
		}
		elemType, err := typeExprToCtyType(e.Args[0])
		if err != nil {
			return cty.NilType, err
		}
		switch e.Name {
		case "list":
			return cty.List(elemType), nil
		case "set":
			return cty.Set(elemType), nil
		case "map":
			return cty.Map(elemType), nil
		default:
			return cty.NilType, fmt.Errorf("unsupported type constructor %q", e.Name)
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(e.Traversal) != 1 {
			return cty.NilType, fmt.Errorf("invalid type expression")
		}
		name := e.Traversal.RootName()
		switch name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.NilType, fmt.Errorf("unsupported type name %q", name)
		}

	default:
		return cty.NilType, fmt.Errorf("unsupported type expression")
	}
}
