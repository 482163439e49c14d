package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A flow file with a syntax error makes app.NewApp panic during the
	// loading phase; run() must surface that as an ordinary error.
	invalidHCL := `
		flow "broken" {
			step "print" "a" {
				arguments {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0o600)
	require.NoError(t, err)

	args := []string{"validate", "--flows", filePath}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(out, args)

	// --- Assert ---
	require.Error(t, runErr, "a startup panic must come back as an error, not crash the process")
	require.True(t, strings.Contains(runErr.Error(), "application startup panicked"),
		"the error should say a panic was recovered")
}

func TestRun_HelpExitsCleanly(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--help"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err, "--help is not an error")
	require.Contains(t, out.String(), "Usage:", "help text should land in the output buffer")
}

func TestRun_UnknownFlag(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--no-such-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.Error(t, err, "argument parsing failures should propagate")
	require.Contains(t, err.Error(), "unknown flag: --no-such-flag")
}

func TestRun_VersionCommand(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"version"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(out, args)

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "flowgrid")
}
