package envprobe

import (
	"context"
	"testing"

	"github.com/specialistvlad/flowgridgo/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunEnvProbe_ReadsRunEnvBeforeProcessEnv(t *testing.T) {
	// --- Arrange ---
	t.Setenv("FLOWGRID_PROBE_HOST", "from-process")
	ctx := secrets.WithRunEnv(context.Background(), map[string]string{
		"PROBE_MODE": "embed",
	})
	input := &Input{Keys: []string{"PROBE_MODE", "FLOWGRID_PROBE_HOST", "PROBE_ABSENT"}}

	// --- Act ---
	out, err := OnRunEnvProbe(ctx, &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"PROBE_MODE":          "embed",
		"FLOWGRID_PROBE_HOST": "from-process",
		"PROBE_ABSENT":        "",
	}, out.Values)
}

func TestOnRunEnvProbe_MasksCredentialShapedKeys(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ctx := secrets.WithRunEnv(context.Background(), map[string]string{
		"NOTION_API_KEY": "ntn_123",
		"DB_PASSWORD":    "hunter2",
		"PLAIN_SETTING":  "visible",
	})
	input := &Input{Keys: []string{"NOTION_API_KEY", "DB_PASSWORD", "PLAIN_SETTING"}}

	// --- Act ---
	out, err := OnRunEnvProbe(ctx, &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "[MASKED]", out.Values["NOTION_API_KEY"])
	assert.Equal(t, "[MASKED]", out.Values["DB_PASSWORD"])
	assert.Equal(t, "visible", out.Values["PLAIN_SETTING"])
}

func TestOnRunEnvProbe_MasksBundleValuesUnderInnocentKeys(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// A secret smuggled into a key name the hint list would not catch still
	// gets redacted through the bundle.
	bundle := secrets.NewBundle(map[string]string{"GDRIVE_KEY": "drive-value"})
	ctx := secrets.WithBundle(context.Background(), bundle)
	ctx = secrets.WithRunEnv(ctx, map[string]string{"INNOCENT": "prefix drive-value suffix"})
	input := &Input{Keys: []string{"INNOCENT"}}

	// --- Act ---
	out, err := OnRunEnvProbe(ctx, &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "prefix [SECRET:GDRIVE_KEY] suffix", out.Values["INNOCENT"])
}

func TestLooksSecret(t *testing.T) {
	t.Parallel()
	assert.True(t, looksSecret("NOTION_API_KEY"))
	assert.True(t, looksSecret("github_token"))
	assert.True(t, looksSecret("DB_PASSWORD"))
	assert.False(t, looksSecret("HOME"))
	assert.False(t, looksSecret("WORKER_COUNT"))
}
