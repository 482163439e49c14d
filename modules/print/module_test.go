package print

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

func TestFormatValue(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   cty.Value
		want string
	}{
		{"null", cty.NullVal(cty.String), "null"},
		{"string prints bare", cty.StringVal("hello"), "hello"},
		{"number", cty.NumberIntVal(42), "42"},
		{"object renders as JSON", cty.ObjectVal(map[string]cty.Value{
			"stdout": cty.StringVal("ok"),
		}), `{"stdout":"ok"}`},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, formatValue(tc.in))
		})
	}
}
