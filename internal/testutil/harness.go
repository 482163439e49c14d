package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/flowgridgo/internal/app"
	"github.com/specialistvlad/flowgridgo/internal/hcl"
	"github.com/specialistvlad/flowgridgo/internal/history"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

// logBuffer collects log output under a mutex; the app's worker pool
// writes to it from several goroutines at once.
type logBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (lb *logBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.Write(p)
}

func (lb *logBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// HarnessResult is what a harness invocation produced: the captured logs,
// the run's identifier and error, and the app itself for further calls.
type HarnessResult struct {
	LogOutput string
	RunID     string
	Err       error
	App       *app.App
}

// RunFlowTest writes the given files into a temp directory, boots the
// application against it with only the provided modules registered, and runs
// the named flow once as a manual dispatch. A flowName of "" stops after
// startup, which is how load- and validation-phase tests use the harness.
func RunFlowTest(t *testing.T, files map[string]string, flowName string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunFlowTestWithContext(context.Background(), t, files, flowName, modules...)
}

// RunFlowTestWithContext is RunFlowTest with a caller-provided context, for
// tests that exercise cancellation and timeouts.
func RunFlowTestWithContext(ctx context.Context, t *testing.T, files map[string]string, flowName string, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := &app.Config{
		FlowsPath:   tmpDir,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	}

	logs := &logBuffer{}
	result := &HarnessResult{}

	// Startup failures (bad config, manifest parity violations) surface as
	// panics from NewApp; the harness converts them into a result error so
	// tests can assert on the message.
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked | %v", r)
			}
		}()
		result.App = app.NewApp(logs, cfg, hcl.NewLoader(), modules...)
	}()

	if result.App != nil {
		t.Cleanup(result.App.Close)
		if flowName != "" {
			result.RunID, result.Err = result.App.RunFlow(ctx, flowName, history.TriggerManual)
		}
	}

	result.LogOutput = logs.String()
	if os.Getenv("FLOWGRID_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), result.LogOutput)
	}
	return result
}
