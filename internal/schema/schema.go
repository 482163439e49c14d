// Package schema declares the HCL block structures the loader decodes,
// covering both user flow files and module manifests.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Flow File Structures ---

// StepArgs carries a step's arguments block undecoded; argument expressions
// are evaluated per run, against that run's secrets and step outputs.
type StepArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// UsesBlock carries a step's uses block undecoded.
type UsesBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// EnvBlock carries a flow's env block undecoded.
type EnvBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Trigger represents the `trigger` block of a flow. Schedule is a standard
// five-field cron expression; Manual allows on-demand dispatch.
type Trigger struct {
	Schedule string `hcl:"schedule,optional"`
	Manual   bool   `hcl:"manual,optional"`
}

// Step represents a `step` block inside a flow. It is a runnable instance
// of a defined runner.
type Step struct {
	RunnerType      string     `hcl:"runner_type,label"`
	Name            string     `hcl:"instance_name,label"`
	Arguments       *StepArgs  `hcl:"arguments,block"`
	Uses            *UsesBlock `hcl:"uses,block"`
	DependsOn       []string   `hcl:"depends_on,optional"`
	Timeout         string     `hcl:"timeout,optional"`
	ContinueOnError bool       `hcl:"continue_on_error,optional"`
}

// Flow represents a top-level `flow` block: one named workflow.
type Flow struct {
	Name        string    `hcl:"name,label"`
	Description string    `hcl:"description,optional"`
	Workdir     string    `hcl:"workdir,optional"`
	Trigger     *Trigger  `hcl:"trigger,block"`
	Secrets     []string  `hcl:"secrets,optional"`
	Env         *EnvBlock `hcl:"env,block"`
	Steps       []*Step   `hcl:"step,block"`
}

// Resource represents a top-level `resource` block. It is a managed,
// stateful instance of a defined asset, shareable by steps of any flow.
type Resource struct {
	AssetType string    `hcl:"asset_type,label"`
	Name      string    `hcl:"instance_name,label"`
	Arguments *StepArgs `hcl:"arguments,block"`
	DependsOn []string  `hcl:"depends_on,optional"`
}

// --- Module Manifest Schemas ---

// Lifecycle names the registered Go handler a runner invokes on run.
type Lifecycle struct {
	OnRun string `hcl:"on_run,optional"`
}

// AssetLifecycle names the registered Go handlers that create and destroy
// an asset instance.
type AssetLifecycle struct {
	Create  string `hcl:"create"`
	Destroy string `hcl:"destroy"`
}

// InputDefinition declares one input a runner or asset accepts. An input
// is optional when it declares a default or sets optional = true; the
// latter form covers inputs whose absence is meaningful, like an unset
// working directory.
type InputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Optional    bool           `hcl:"optional,optional"`
}

// OutputDefinition declares one value a runner or asset publishes for
// later steps to reference.
type OutputDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

// UsesDefinition declares an asset the runner needs injected, under the
// local name its handler's deps struct uses.
type UsesDefinition struct {
	LocalName string `hcl:"local_name,label"`
	AssetType string `hcl:"asset_type"`
}

// RunnerDefinition is the manifest block describing a runner type: its
// handler wiring, inputs, outputs, and asset dependencies.
type RunnerDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *Lifecycle          `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
	Uses        []*UsesDefinition   `hcl:"uses,block"`
}

// AssetDefinition is the manifest block describing an asset type: the
// stateful counterpart to RunnerDefinition, with create/destroy wiring.
type AssetDefinition struct {
	Type        string              `hcl:"type,label"`
	Description string              `hcl:"description,optional"`
	Lifecycle   *AssetLifecycle     `hcl:"lifecycle,block"`
	Inputs      []*InputDefinition  `hcl:"input,block"`
	Outputs     []*OutputDefinition `hcl:"output,block"`
}
