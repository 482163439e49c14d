package hcl

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/flowgridgo/internal/config"
)

// parseExpr turns HCL expression source into an evaluable expression, the
// same shape the loader stores in a step's Arguments map.
func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	expr, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return expr
}

func requiredInput(name string, ty cty.Type) *config.InputDefinition {
	return &config.InputDefinition{Name: name, Type: ty}
}

func defaultedInput(name string, ty cty.Type, def cty.Value) *config.InputDefinition {
	return &config.InputDefinition{Name: name, Type: ty, Default: &def, Optional: true}
}

func optionalInput(name string, ty cty.Type) *config.InputDefinition {
	return &config.InputDefinition{Name: name, Type: ty, Optional: true}
}

type commandInput struct {
	Command string            `flowgo:"command"`
	Args    []string          `flowgo:"args"`
	Dir     string            `flowgo:"dir"`
	Env     map[string]string `flowgo:"env"`
	Capture bool              `flowgo:"capture"`
}

func commandDefs() map[string]*config.InputDefinition {
	return map[string]*config.InputDefinition{
		"command": requiredInput("command", cty.String),
		"args":    defaultedInput("args", cty.List(cty.String), cty.ListValEmpty(cty.String)),
		"dir":     optionalInput("dir", cty.String),
		"env":     defaultedInput("env", cty.Map(cty.String), cty.MapValEmpty(cty.String)),
		"capture": defaultedInput("capture", cty.Bool, cty.True),
	}
}

func TestDecodeBody_PopulatesStructFromArguments(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	args := map[string]hcl.Expression{
		"command": parseExpr(t, `"python"`),
		"args":    parseExpr(t, `["-m", "pip"]`),
		"env":     parseExpr(t, `{ STAGE = "prod" }`),
	}
	var input commandInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, args, commandDefs(), nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "python", input.Command)
	assert.Equal(t, []string{"-m", "pip"}, input.Args)
	assert.Equal(t, map[string]string{"STAGE": "prod"}, input.Env)
	assert.True(t, input.Capture, "absent argument should take the manifest default")
	assert.Empty(t, input.Dir, "absent optional argument stays zero-valued")
}

func TestDecodeBody_EvaluatesAgainstContext(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	args := map[string]hcl.Expression{
		"command": parseExpr(t, `env.SHELL`),
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(map[string]cty.Value{
				"SHELL": cty.StringVal("/bin/sh"),
			}),
		},
	}
	var input commandInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, args, commandDefs(), evalCtx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", input.Command)
}

func TestDecodeBody_RejectsUnknownArgument(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	args := map[string]hcl.Expression{
		"command": parseExpr(t, `"python"`),
		"bogus":   parseExpr(t, `"value"`),
	}
	var input commandInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, args, commandDefs(), nil)

	// --- Assert ---
	require.Error(t, err)
	assert.EqualError(t, err, `unsupported argument "bogus"`)
}

func TestDecodeBody_RejectsMissingRequiredArgument(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	var input commandInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, nil, commandDefs(), nil)

	// --- Assert ---
	require.Error(t, err)
	assert.EqualError(t, err, `missing required argument "command"`)
}

func TestDecodeBody_RejectsTypeMismatch(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	args := map[string]hcl.Expression{
		"command": parseExpr(t, `["not", "a", "string"]`),
	}
	var input commandInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, args, commandDefs(), nil)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), `argument "command"`)
	assert.Contains(t, err.Error(), "type mismatch")
}

func TestDecodeBody_PassesRawCtyValueThrough(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	type dynamicInput struct {
		Value cty.Value `flowgo:"value"`
	}
	c := NewConverter()
	args := map[string]hcl.Expression{
		"value": parseExpr(t, `[1, "two", true]`),
	}
	defs := map[string]*config.InputDefinition{
		"value": requiredInput("value", cty.DynamicPseudoType),
	}
	var input dynamicInput

	// --- Act ---
	err := c.DecodeBody(context.Background(), &input, args, defs, nil)

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, input.Value.Type().IsTupleType())
	vals := input.Value.AsValueSlice()
	require.Len(t, vals, 3)
	assert.Equal(t, cty.StringVal("two"), vals[1])
}

func TestToCtyValue_ConvertsTaggedStruct(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	type output struct {
		Stdout   string `cty:"stdout"`
		ExitCode int64  `cty:"exit_code"`
	}
	c := NewConverter()

	// --- Act ---
	val, err := c.ToCtyValue(&output{Stdout: "done", ExitCode: 0})

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, val.Type().IsObjectType())
	assert.Equal(t, cty.StringVal("done"), val.GetAttr("stdout"))
	assert.True(t, cty.NumberIntVal(0).RawEquals(val.GetAttr("exit_code")))
}

func TestToCtyValue_PassesCtyValuesThrough(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	c := NewConverter()
	original := cty.ObjectVal(map[string]cty.Value{"value": cty.StringVal("x")})

	// --- Act ---
	val, err := c.ToCtyValue(original)

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, original.RawEquals(val))
}
