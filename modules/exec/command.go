package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	osexec "os/exec"
	"sort"
	"strings"
	"time"

	"github.com/specialistvlad/flowgridgo/internal/secrets"
)

// Spec describes one subprocess invocation.
type Spec struct {
	Command string
	Args    []string
	Dir     string
	Env     map[string]string
	Capture bool
}

// Run executes the subprocess described by spec. Captured output is masked
// against the run's secret bundle before it is returned; streamed output
// passes through a masking writer on its way to the process streams. A
// non-zero exit is returned as an error carrying the exit code and the tail
// of stderr.
func Run(ctx context.Context, spec Spec) (*Output, error) {
	bundle := secrets.BundleFrom(ctx)
	if bundle == nil {
		bundle = secrets.NewBundle(nil)
	}

	cmd := osexec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = BuildEnv(os.Environ(), secrets.RunEnvFrom(ctx), spec.Env)

	var stdout, stderr bytes.Buffer
	if spec.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		outW := bundle.Masker(os.Stdout)
		errW := bundle.Masker(os.Stderr)
		defer outW.Close()
		defer errW.Close()
		cmd.Stdout = outW
		cmd.Stderr = errW
	}

	started := time.Now()
	runErr := cmd.Run()
	out := &Output{
		Stdout:     bundle.Mask(stdout.String()),
		Stderr:     bundle.Mask(stderr.String()),
		DurationMs: time.Since(started).Milliseconds(),
	}

	if runErr == nil {
		return out, nil
	}
	var exitErr *osexec.ExitError
	if errors.As(runErr, &exitErr) {
		code := exitErr.ExitCode()
		if msg := tail(out.Stderr); msg != "" {
			return nil, fmt.Errorf("command %q exited with code %d: %s", spec.Command, code, msg)
		}
		return nil, fmt.Errorf("command %q exited with code %d", spec.Command, code)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return nil, fmt.Errorf("command %q: %w", spec.Command, runErr)
}

// BuildEnv flattens the inherited environment and the given overlay maps into
// the form os/exec expects. Later layers win on key collisions; overlay keys
// are appended in sorted order so the result is deterministic.
func BuildEnv(base []string, layers ...map[string]string) []string {
	env := append([]string(nil), base...)
	for _, layer := range layers {
		keys := make([]string, 0, len(layer))
		for k := range layer {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, k+"="+layer[k])
		}
	}
	return env
}

// tail returns the last few lines of s, for error messages.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " / ")
}
