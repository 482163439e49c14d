package secrets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
)

// Resolve looks up every key across the provider chain, first match wins.
// It returns an error naming all keys that are missing or empty, so an
// operator can fix the whole environment in one pass instead of replaying
// the run once per key.
func Resolve(ctx context.Context, keys []string, providers ...Provider) (*Bundle, error) {
	logger := ctxlog.FromContext(ctx)
	values := make(map[string]string, len(keys))
	var missing []string

	for _, key := range keys {
		value, source := lookup(key, providers)
		if value == "" {
			missing = append(missing, key)
			continue
		}
		logger.Debug("Resolved secret.", "key", key, "source", source)
		values[key] = value
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required secrets: %s", strings.Join(missing, ", "))
	}
	return NewBundle(values), nil
}

// Status reports one key's resolution result for diagnostics.
type Status struct {
	Key    string
	Found  bool
	Source string
}

// Check resolves every key without failing, for pre-flight diagnostics.
func Check(keys []string, providers ...Provider) []Status {
	statuses := make([]Status, 0, len(keys))
	for _, key := range keys {
		value, source := lookup(key, providers)
		statuses = append(statuses, Status{
			Key:    key,
			Found:  value != "",
			Source: source,
		})
	}
	return statuses
}

// lookup walks the chain and returns the first non-empty value and its
// provider's name. An empty value counts as not found.
func lookup(key string, providers []Provider) (string, string) {
	for _, p := range providers {
		if value, ok := p.Lookup(key); ok && value != "" {
			return value, p.Name()
		}
	}
	return "", ""
}
