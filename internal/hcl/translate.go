package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translateFlow converts a decoded schema.Flow into the format-agnostic model.
func (l *Loader) translateFlow(ctx context.Context, in *schema.Flow) (*config.Flow, error) {
	out := &config.Flow{
		Name:        in.Name,
		Description: in.Description,
		Workdir:     in.Workdir,
		SecretKeys:  in.Secrets,
	}

	if in.Trigger != nil {
		out.Trigger = &config.Trigger{
			Schedule: in.Trigger.Schedule,
			Manual:   in.Trigger.Manual,
		}
	}

	if in.Env != nil {
		env, err := extractBodyAttributes(in.Env.Body)
		if err != nil {
			return nil, fmt.Errorf("flow %q: invalid env block: %w", in.Name, err)
		}
		out.Env = env
	}

	for _, s := range in.Steps {
		step, err := l.translateStep(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("flow %q: %w", in.Name, err)
		}
		out.Steps = append(out.Steps, step)
	}
	return out, nil
}

// translateStep converts a decoded schema.Step into the model representation.
func (l *Loader) translateStep(_ context.Context, in *schema.Step) (*config.Step, error) {
	out := &config.Step{
		RunnerType:      in.RunnerType,
		Name:            in.Name,
		DependsOn:       in.DependsOn,
		ContinueOnError: in.ContinueOnError,
	}

	if in.Timeout != "" {
		d, err := time.ParseDuration(in.Timeout)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid timeout %q: %w", in.Name, in.Timeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("step %q: timeout must be positive, got %q", in.Name, in.Timeout)
		}
		out.Timeout = d
	}

	if in.Arguments != nil {
		args, err := extractBodyAttributes(in.Arguments.Body)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid arguments block: %w", in.Name, err)
		}
		out.Arguments = args
	}

	if in.Uses != nil {
		uses, err := extractBodyAttributes(in.Uses.Body)
		if err != nil {
			return nil, fmt.Errorf("step %q: invalid uses block: %w", in.Name, err)
		}
		out.Uses = uses
	}
	return out, nil
}

// translateResource converts a decoded schema.Resource into the model representation.
func (l *Loader) translateResource(in *schema.Resource) (*config.Resource, error) {
	out := &config.Resource{
		AssetType: in.AssetType,
		Name:      in.Name,
	}
	if in.Arguments != nil {
		args, err := extractBodyAttributes(in.Arguments.Body)
		if err != nil {
			return nil, fmt.Errorf("resource %q: invalid arguments block: %w", out.ID(), err)
		}
		out.Arguments = args
	}
	return out, nil
}

// translateRunnerDefinition converts a decoded runner definition block.
func (l *Loader) translateRunnerDefinition(ctx context.Context, in *schema.RunnerDefinition) (*config.RunnerDefinition, error) {
	out := &config.RunnerDefinition{
		Type:        in.Type,
		Description: in.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
		Uses:        make(map[string]*config.UsesDefinition),
	}

	if in.Lifecycle != nil {
		out.Lifecycle = &config.Lifecycle{OnRun: in.Lifecycle.OnRun}
	}

	for _, input := range in.Inputs {
		def, err := l.translateInputDefinition(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("runner %q: %w", in.Type, err)
		}
		out.Inputs[def.Name] = def
	}

	for _, output := range in.Outputs {
		ctyType, err := typeExprToCtyType(output.Type)
		if err != nil {
			return nil, fmt.Errorf("runner %q: output %q: %w", in.Type, output.Name, err)
		}
		out.Outputs[output.Name] = &config.OutputDefinition{
			Name:        output.Name,
			Type:        ctyType,
			Description: output.Description,
		}
	}

	for _, uses := range in.Uses {
		out.Uses[uses.LocalName] = &config.UsesDefinition{
			LocalName: uses.LocalName,
			AssetType: uses.AssetType,
		}
	}
	return out, nil
}

// translateAssetDefinition converts a decoded asset definition block.
func (l *Loader) translateAssetDefinition(ctx context.Context, in *schema.AssetDefinition) (*config.AssetDefinition, error) {
	out := &config.AssetDefinition{
		Type:        in.Type,
		Description: in.Description,
		Inputs:      make(map[string]*config.InputDefinition),
		Outputs:     make(map[string]*config.OutputDefinition),
	}

	if in.Lifecycle != nil {
		out.Lifecycle = &config.AssetLifecycle{
			Create:  in.Lifecycle.Create,
			Destroy: in.Lifecycle.Destroy,
		}
	}

	for _, input := range in.Inputs {
		def, err := l.translateInputDefinition(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", in.Type, err)
		}
		out.Inputs[def.Name] = def
	}

	for _, output := range in.Outputs {
		ctyType, err := typeExprToCtyType(output.Type)
		if err != nil {
			return nil, fmt.Errorf("asset %q: output %q: %w", in.Type, output.Name, err)
		}
		out.Outputs[output.Name] = &config.OutputDefinition{
			Name:        output.Name,
			Type:        ctyType,
			Description: output.Description,
		}
	}
	return out, nil
}

// translateInputDefinition converts one input block, evaluating its static
// type expression and optional default value.
func (l *Loader) translateInputDefinition(_ context.Context, in *schema.InputDefinition) (*config.InputDefinition, error) {
	ctyType, err := typeExprToCtyType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", in.Name, err)
	}

	out := &config.InputDefinition{
		Name:        in.Name,
		Type:        ctyType,
		Description: in.Description,
		Optional:    in.Optional,
	}

	if in.Default != nil {
		val, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("input %q: invalid default value: %w", in.Name, diags)
		}
		if ctyType != cty.DynamicPseudoType && !val.IsNull() {
			converted, err := convertValue(val, ctyType)
			if err != nil {
				return nil, fmt.Errorf("input %q: default value does not match type: %w", in.Name, err)
			}
			val = converted
		}
		out.Default = &val
		out.Optional = true
	}
	return out, nil
}

// extractBodyAttributes flattens an HCL body into a map of named expressions.
// Evaluation is deferred until execution time so expressions may reference
// step outputs, secrets, and flow environment values.
func extractBodyAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read attributes: %w", diags)
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}

// convertValue coerces a cty value to the target type, for default values
// whose literal form differs from the declared input type.
func convertValue(val cty.Value, target cty.Type) (cty.Value, error) {
	if val.Type().Equals(target) {
		return val, nil
	}
	converted, err := convert.Convert(val, target)
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", val.Type().FriendlyName(), target.FriendlyName(), err)
	}
	return converted, nil
}
