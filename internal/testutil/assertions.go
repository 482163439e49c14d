package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertStepRan checks the log output within a HarnessResult to confirm that
// a specific step ran to completion. It abstracts the underlying node ID
// format, making tests more resilient to internal refactoring.
func AssertStepRan(t *testing.T, result *HarnessResult, runnerType, stepName string) {
	t.Helper()
	require.True(t,
		logHasStepLine(result.LogOutput, runnerType, stepName, "Finished step"),
		"expected step '%s.%s' to finish, but no completion log was found", runnerType, stepName,
	)
}

// AssertStepNeverRan checks that a specific step was never started, which is
// how skip propagation is observed from the outside.
func AssertStepNeverRan(t *testing.T, result *HarnessResult, runnerType, stepName string) {
	t.Helper()
	require.False(t,
		logHasStepLine(result.LogOutput, runnerType, stepName, "Starting step"),
		"expected step '%s.%s' to be skipped, but it started", runnerType, stepName,
	)
}

// logHasStepLine reports whether any log line mentions both the step's node
// ID and the given message fragment.
func logHasStepLine(logOutput, runnerType, stepName, fragment string) bool {
	stepAttr := fmt.Sprintf("step=step.%s.%s", runnerType, stepName)
	for _, line := range strings.Split(logOutput, "\n") {
		if strings.Contains(line, stepAttr) && strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}
