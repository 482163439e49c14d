package secrets

import (
	"fmt"
	"sort"
	"strings"
)

// Bundle holds the resolved secret values for one run. The zero value is not
// usable; construct bundles with NewBundle.
type Bundle struct {
	values map[string]string
}

// NewBundle copies the given values into a new bundle.
func NewBundle(values map[string]string) *Bundle {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Bundle{values: copied}
}

// Get returns the value for a key and whether it is present.
func (b *Bundle) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok
}

// Keys returns the bundle's keys in sorted order.
func (b *Bundle) Keys() []string {
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the bundle's contents.
func (b *Bundle) Values() map[string]string {
	copied := make(map[string]string, len(b.values))
	for k, v := range b.values {
		copied[k] = v
	}
	return copied
}

// Len returns the number of secrets in the bundle.
func (b *Bundle) Len() int {
	return len(b.values)
}

// Mask replaces every occurrence of a secret value in s with a redaction
// token naming the key, e.g. [SECRET:NOTION_API_KEY]. Captured command
// output goes through here before it is logged or exposed as a step output.
// Longer values are replaced first so a secret that contains another secret
// as a substring still redacts cleanly.
func (b *Bundle) Mask(s string) string {
	keys := b.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return len(b.values[keys[i]]) > len(b.values[keys[j]])
	})
	for _, k := range keys {
		v := b.values[k]
		if v == "" {
			continue
		}
		s = strings.ReplaceAll(s, v, fmt.Sprintf("[SECRET:%s]", k))
	}
	return s
}
