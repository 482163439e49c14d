// Package git provides repository checkout through the system git binary.
// A checkout is idempotent: re-running a step against an existing working
// copy fetches and resets instead of cloning again.
package git

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/modules/exec"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the git runner.
type Input struct {
	Repo  string `flowgo:"repo"`
	Ref   string `flowgo:"ref"`
	Dir   string `flowgo:"dir"`
	Depth int64  `flowgo:"depth"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// Output is the result a checkout step exposes to later steps.
type Output struct {
	Commit string `cty:"commit"`
	Dir    string `cty:"dir"`
}

// OnRunGit is the handler for the 'git' runner's on_run lifecycle event. It
// initializes the working copy on first use, then fetches the requested ref
// and checks out FETCH_HEAD detached, so the same step converges on repeat
// runs.
func OnRunGit(ctx context.Context, _ *Deps, input *Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)

	dir := input.Dir
	if dir == "" {
		dir = defaultDir(input.Repo)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve checkout dir %q: %w", dir, err)
	}
	logger.Info("Checking out repository.", "repo", input.Repo, "ref", input.Ref, "dir", absDir)

	if _, err := os.Stat(filepath.Join(absDir, ".git")); os.IsNotExist(err) {
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create checkout dir %q: %w", absDir, err)
		}
		if _, err := runGit(ctx, absDir, "init", "--quiet"); err != nil {
			return nil, err
		}
		if _, err := runGit(ctx, absDir, "remote", "add", "origin", input.Repo); err != nil {
			return nil, err
		}
	}

	fetchArgs := []string{"fetch", "--quiet"}
	if input.Depth > 0 {
		fetchArgs = append(fetchArgs, fmt.Sprintf("--depth=%d", input.Depth))
	}
	fetchArgs = append(fetchArgs, "origin", input.Ref)
	if _, err := runGit(ctx, absDir, fetchArgs...); err != nil {
		return nil, err
	}
	if _, err := runGit(ctx, absDir, "checkout", "--force", "--quiet", "--detach", "FETCH_HEAD"); err != nil {
		return nil, err
	}

	commit, err := runGit(ctx, absDir, "rev-parse", "HEAD")
	if err != nil {
		return nil, err
	}
	logger.Info("Checkout complete.", "commit", commit)
	return &Output{Commit: commit, Dir: absDir}, nil
}

// runGit runs one git command in dir and returns its trimmed stdout.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := exec.Run(ctx, exec.Spec{Command: "git", Args: args, Dir: dir, Capture: true})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Stdout), nil
}

// defaultDir derives a checkout directory name from the remote URL, the way
// a plain `git clone` would.
func defaultDir(repo string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(repo, "/"), ".git")
	base := path.Base(trimmed)
	if i := strings.LastIndexByte(base, ':'); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == "/" {
		return "checkout"
	}
	return base
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunGit", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunGit,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
