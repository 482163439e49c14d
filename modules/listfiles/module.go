// Package listfiles provides a diagnostic runner that lists a directory tree,
// the flow-step equivalent of ls -R.
package listfiles

import (
	"context"
	_ "embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/registry"
)

//go:embed manifest.hcl
var manifestHCL []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the list_files runner.
type Input struct {
	Path          string `flowgo:"path"`
	IncludeHidden bool   `flowgo:"include_hidden"`
}

// Deps is empty because this runner does not use any resources.
type Deps struct{}

// Output defines the data structure returned by the runner.
type Output struct {
	Listing string `cty:"listing"`
	Count   int64  `cty:"count"`
}

// OnRunListFiles is the handler for the 'list_files' runner's on_run
// lifecycle event. Paths in the listing are relative to the root with a
// trailing slash on directories; the count covers files only.
func OnRunListFiles(ctx context.Context, _ *Deps, input *Input) (*Output, error) {
	root := input.Path
	if root == "" {
		root = "."
	}

	var listing strings.Builder
	var count int64
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if !input.IncludeHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			listing.WriteString(rel + "/\n")
			return nil
		}
		listing.WriteString(rel + "\n")
		count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot list %q: %w", root, err)
	}

	ctxlog.FromContext(ctx).Info("Listed files.", "path", root, "count", count)
	return &Output{Listing: listing.String(), Count: count}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunListFiles", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunListFiles,
	})
}

// Manifest returns the embedded HCL contract for this module.
func (m *Module) Manifest() []byte {
	return manifestHCL
}
