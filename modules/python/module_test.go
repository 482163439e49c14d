package python

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgv_ComposesInterpreterInvocation(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	input := &Input{
		Script:      "main.py",
		Args:        []string{"--embed"},
		Interpreter: "python",
	}

	// --- Act ---
	command, args := Argv(input)

	// --- Assert ---
	assert.Equal(t, "python", command)
	assert.Equal(t, []string{"main.py", "--embed"}, args)
}

func TestOnRunPython_RunsScriptWithArgs(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	// The interpreter input takes any program that accepts a script path as
	// its first argument, which keeps this test off a real Python install.
	dir := t.TempDir()
	script := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(script, []byte("echo \"mode: $1\"\n"), 0o644))
	input := &Input{
		Script:      script,
		Args:        []string{"--embed"},
		Interpreter: "sh",
	}

	// --- Act ---
	out, err := OnRunPython(context.Background(), &Deps{}, input)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "mode: --embed\n", out.Stdout)
	assert.EqualValues(t, 0, out.ExitCode)
}

func TestOnRunPython_ScriptFailurePropagates(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := t.TempDir()
	script := filepath.Join(dir, "broken.py")
	require.NoError(t, os.WriteFile(script, []byte("echo nope >&2\nexit 7\n"), 0o644))
	input := &Input{Script: script, Interpreter: "sh"}

	// --- Act ---
	out, err := OnRunPython(context.Background(), &Deps{}, input)

	// --- Assert ---
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "exited with code 7")
}
