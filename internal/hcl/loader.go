package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/fsutil"
	"github.com/specialistvlad/flowgridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Runners   []*schema.RunnerDefinition `hcl:"runner,block"`
	Assets    []*schema.AssetDefinition  `hcl:"asset,block"`
	Flows     []*schema.Flow             `hcl:"flow,block"`
	Resources []*schema.Resource         `hcl:"resource,block"`
}

// Load orchestrates the entire HCL configuration loading process. It is
// agnostic to the origin of the paths and parses any valid block from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := newModel()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.mergeFile(ctx, hclFile.Body, file, model); err != nil {
			return nil, nil, err
		}
	}

	logger.Debug("HCL loading complete.",
		"runners", len(model.Runners),
		"assets", len(model.Assets),
		"flows", len(model.Flows),
		"resources", len(model.Resources),
	)
	return model, NewConverter(), nil
}

// LoadManifest parses a single in-memory module manifest and merges its
// definitions into an already-loaded model. Only definition blocks are
// allowed; a manifest declaring flows or resources is a programmer error.
func (l *Loader) LoadManifest(ctx context.Context, filename string, src []byte, model *config.Model) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}
	if len(root.Flows) > 0 || len(root.Resources) > 0 {
		return fmt.Errorf("manifest %s may only declare runner and asset definitions", filename)
	}

	return l.mergeDefinitions(ctx, &root, filename, model)
}

// mergeFile decodes one parsed HCL body and merges every block into the model.
func (l *Loader) mergeFile(ctx context.Context, body hcl.Body, filename string, model *config.Model) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	if err := l.mergeDefinitions(ctx, &root, filename, model); err != nil {
		return err
	}

	for _, flow := range root.Flows {
		translated, err := l.translateFlow(ctx, flow)
		if err != nil {
			return fmt.Errorf("in file %s: %w", filename, err)
		}
		if _, exists := model.Flow(translated.Name); exists {
			return fmt.Errorf("duplicate flow %q declared in %s", translated.Name, filename)
		}
		model.Flows = append(model.Flows, translated)
	}

	for _, resource := range root.Resources {
		translated, err := l.translateResource(resource)
		if err != nil {
			return fmt.Errorf("in file %s: %w", filename, err)
		}
		for _, existing := range model.Resources {
			if existing.ID() == translated.ID() {
				return fmt.Errorf("duplicate resource %q declared in %s", translated.ID(), filename)
			}
		}
		model.Resources = append(model.Resources, translated)
	}
	return nil
}

// mergeDefinitions merges runner and asset definitions from a decoded root.
func (l *Loader) mergeDefinitions(ctx context.Context, root *fileRoot, filename string, model *config.Model) error {
	for _, runner := range root.Runners {
		def, err := l.translateRunnerDefinition(ctx, runner)
		if err != nil {
			return fmt.Errorf("in %s: %w", filename, err)
		}
		if _, exists := model.Runners[def.Type]; exists {
			return fmt.Errorf("duplicate runner definition %q in %s", def.Type, filename)
		}
		model.Runners[def.Type] = def
	}
	for _, asset := range root.Assets {
		def, err := l.translateAssetDefinition(ctx, asset)
		if err != nil {
			return fmt.Errorf("in %s: %w", filename, err)
		}
		if _, exists := model.Assets[def.Type]; exists {
			return fmt.Errorf("duplicate asset definition %q in %s", def.Type, filename)
		}
		model.Assets[def.Type] = def
	}
	return nil
}

func newModel() *config.Model {
	return &config.Model{
		Runners: make(map[string]*config.RunnerDefinition),
		Assets:  make(map[string]*config.AssetDefinition),
	}
}

// findAllHCLFiles walks all given paths and returns a flat, de-duplicated
// list of .hcl files. A configured path that does not exist is skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		for _, f := range found {
			if _, wasSeen := seen[f]; !wasSeen {
				allFiles = append(allFiles, f)
				seen[f] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
