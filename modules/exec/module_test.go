package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/flowgridgo/internal/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnRunExec_CapturesOutput(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	input := &Input{
		Command: "sh",
		Args:    []string{"-c", "echo hello; echo oops >&2"},
		Capture: true,
	}

	// --- Act ---
	out, err := OnRunExec(context.Background(), &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out.Stdout)
	assert.Equal(t, "oops\n", out.Stderr)
	assert.EqualValues(t, 0, out.ExitCode)
}

func TestOnRunExec_NonZeroExitFailsWithCode(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	input := &Input{
		Command: "sh",
		Args:    []string{"-c", "echo broken >&2; exit 3"},
		Capture: true,
	}

	// --- Act ---
	out, err := OnRunExec(context.Background(), &Deps{}, input)

	// --- Assert ---
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "exited with code 3")
	assert.Contains(t, err.Error(), "broken")
}

func TestOnRunExec_StepEnvWinsOverRunEnv(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	ctx := secrets.WithRunEnv(context.Background(), map[string]string{
		"GREETING": "from-run",
		"ONLY_RUN": "run-value",
	})
	input := &Input{
		Command: "sh",
		Args:    []string{"-c", `printf '%s %s' "$GREETING" "$ONLY_RUN"`},
		Env:     map[string]string{"GREETING": "from-step"},
		Capture: true,
	}

	// --- Act ---
	out, err := OnRunExec(ctx, &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "from-step run-value", out.Stdout)
}

func TestOnRunExec_MasksSecretsInCapturedOutput(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	bundle := secrets.NewBundle(map[string]string{"NOTION_API_KEY": "ntn_very_secret"})
	ctx := secrets.WithBundle(context.Background(), bundle)
	input := &Input{
		Command: "sh",
		Args:    []string{"-c", "echo key=ntn_very_secret"},
		Capture: true,
	}

	// --- Act ---
	out, err := OnRunExec(ctx, &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "key=[SECRET:NOTION_API_KEY]\n", out.Stdout)
}

func TestOnRunExec_RunsInRequestedDir(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644))
	input := &Input{
		Command: "ls",
		Dir:     dir,
		Capture: true,
	}

	// --- Act ---
	out, err := OnRunExec(context.Background(), &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out.Stdout, "marker.txt")
}

func TestBuildEnv_LaterLayersAppendAfterBase(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	base := []string{"PATH=/usr/bin", "HOME=/root"}
	runEnv := map[string]string{"HOME": "/override", "B_KEY": "b"}
	stepEnv := map[string]string{"A_KEY": "a"}

	// --- Act ---
	env := BuildEnv(base, runEnv, stepEnv)

	// --- Assert ---
	// os/exec resolves duplicates by taking the last entry, so overlays must
	// come after the base in a stable order.
	assert.Equal(t, []string{
		"PATH=/usr/bin",
		"HOME=/root",
		"B_KEY=b",
		"HOME=/override",
		"A_KEY=a",
	}, env)
}
