package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is everything the engine knows after loading: all module
// definitions, every flow, and the shared resources flows may use. It is
// the boundary between parsing and execution; nothing downstream touches
// raw HCL blocks.
type Model struct {
	Runners   map[string]*RunnerDefinition
	Assets    map[string]*AssetDefinition
	Flows     []*Flow
	Resources []*Resource
}

// Flow looks up a flow by name.
func (m *Model) Flow(name string) (*Flow, bool) {
	for _, f := range m.Flows {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// Flow is one named workflow: its trigger, secret requirements,
// environment, and steps. Argument and env expressions stay unevaluated
// here; each run evaluates them against its own context.
type Flow struct {
	Name        string
	Description string
	Workdir     string
	Trigger     *Trigger
	SecretKeys  []string
	Env         map[string]hcl.Expression
	Steps       []*Step
}

// Trigger describes when a flow is dispatched. Schedule is a standard
// five-field cron expression; Manual marks the flow as dispatchable on
// demand. A flow may carry both, either, or neither.
type Trigger struct {
	Schedule string
	Manual   bool
}

// Step is one unit of work inside a flow, bound to a runner type.
type Step struct {
	RunnerType      string
	Name            string
	Arguments       map[string]hcl.Expression
	Uses            map[string]hcl.Expression
	DependsOn       []string
	Timeout         time.Duration
	ContinueOnError bool
}

// ID returns the canonical node identifier for this step.
func (s *Step) ID() string {
	return fmt.Sprintf("step.%s.%s", s.RunnerType, s.Name)
}

// Resource is a stateful instance of an asset type, shared by any steps
// that declare a uses binding to it.
type Resource struct {
	AssetType string
	Name      string
	Arguments map[string]hcl.Expression
	DependsOn []string
}

// ID returns the canonical node identifier for this resource.
func (r *Resource) ID() string {
	return fmt.Sprintf("resource.%s.%s", r.AssetType, r.Name)
}

// --- Module Manifest Models ---

// RunnerDefinition is a runner manifest after translation: inputs, outputs,
// and uses keyed by name, with types resolved to cty.
type RunnerDefinition struct {
	Type        string
	Description string
	Lifecycle   *Lifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
	Uses        map[string]*UsesDefinition
}

// AssetDefinition is an asset manifest after translation.
type AssetDefinition struct {
	Type        string
	Description string
	Lifecycle   *AssetLifecycle
	Inputs      map[string]*InputDefinition
	Outputs     map[string]*OutputDefinition
}

// Lifecycle names the handler a runner invokes on run.
type Lifecycle struct {
	OnRun string
}

// AssetLifecycle names the handlers that create and destroy an asset.
type AssetLifecycle struct {
	Create  string
	Destroy string
}

// InputDefinition is one input a runner or asset accepts, with its type
// resolved and any default already converted.
type InputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
	Default     *cty.Value
	Optional    bool
}

// OutputDefinition is one value a runner or asset publishes.
type OutputDefinition struct {
	Name        string
	Type        cty.Type
	Description string
}

// UsesDefinition is one asset dependency a runner declares.
type UsesDefinition struct {
	LocalName string
	AssetType string
}
