package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/flowgridgo/internal/config"
)

// writeFixtures writes the given files into a fresh temp directory and
// returns its path.
func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad_TranslatesFullFlow(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := writeFixtures(t, map[string]string{
		"main.hcl": `
resource "http_client" "shared" {
  arguments {
    timeout = "30s"
  }
}

flow "nightly" {
  description = "Nightly sync."
  workdir     = "/var/lib/sync"

  trigger {
    schedule = "0 * * * *"
    manual   = true
  }

  secrets = ["API_KEY", "API_SECRET"]

  env {
    STAGE = "prod"
  }

  step "exec" "first" {
    arguments {
      command = "true"
    }
    timeout = "90s"
  }

  step "exec" "second" {
    arguments {
      command = "false"
    }
    continue_on_error = true
    depends_on        = ["exec.first"]
  }
}
`,
	})

	// --- Act ---
	model, converter, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, converter)

	flow, ok := model.Flow("nightly")
	require.True(t, ok)
	assert.Equal(t, "Nightly sync.", flow.Description)
	assert.Equal(t, "/var/lib/sync", flow.Workdir)
	assert.Equal(t, []string{"API_KEY", "API_SECRET"}, flow.SecretKeys)
	require.NotNil(t, flow.Trigger)
	assert.Equal(t, "0 * * * *", flow.Trigger.Schedule)
	assert.True(t, flow.Trigger.Manual)
	require.Contains(t, flow.Env, "STAGE")

	require.Len(t, flow.Steps, 2)
	first, second := flow.Steps[0], flow.Steps[1]
	assert.Equal(t, "step.exec.first", first.ID())
	assert.Equal(t, 90*time.Second, first.Timeout)
	assert.Contains(t, first.Arguments, "command")
	assert.True(t, second.ContinueOnError)
	assert.Equal(t, []string{"exec.first"}, second.DependsOn)

	require.Len(t, model.Resources, 1)
	assert.Equal(t, "resource.http_client.shared", model.Resources[0].ID())
}

func TestLoad_MergesFlowsAcrossFiles(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := writeFixtures(t, map[string]string{
		"alpha.hcl": `
flow "alpha" {
  step "exec" "a" {
    arguments {
      command = "true"
    }
  }
}
`,
		"beta.hcl": `
flow "beta" {
  step "exec" "b" {
    arguments {
      command = "true"
    }
  }
}
`,
	})

	// --- Act ---
	model, _, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, model.Flows, 2)
}

func TestLoad_RejectsDuplicateFlowNames(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	fixture := `
flow "twice" {
  step "exec" "a" {
    arguments {
      command = "true"
    }
  }
}
`
	dir := writeFixtures(t, map[string]string{
		"one.hcl": fixture,
		"two.hcl": fixture,
	})

	// --- Act ---
	_, _, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate flow "twice"`)
}

func TestLoad_RejectsInvalidStepTimeout(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	dir := writeFixtures(t, map[string]string{
		"main.hcl": `
flow "timed" {
  step "exec" "slow" {
    arguments {
      command = "sleep"
    }
    timeout = "soon"
  }
}
`,
	})

	// --- Act ---
	_, _, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid timeout "soon"`)
}

func TestLoad_SkipsMissingPath(t *testing.T) {
	t.Parallel()
	// --- Act ---
	model, _, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, model.Flows)
}

func TestLoadManifest_TranslatesRunnerDefinition(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifest := []byte(`
runner "shipper" {
  description = "Ships artifacts somewhere."

  lifecycle {
    on_run = "OnRunShipper"
  }

  input "target" {
    type = string
  }

  input "tags" {
    type    = list(string)
    default = []
  }

  input "labels" {
    type    = map(string)
    default = {}
  }

  input "dry_run" {
    type    = bool
    default = false
  }

  input "retries" {
    type    = number
    default = 3
  }

  input "payload" {
    type     = any
    optional = true
  }

  output "url" {
    type = string
  }

  uses "client" {
    asset_type = "http_client"
  }
}
`)
	loader := NewLoader()
	model := &config.Model{
		Runners: map[string]*config.RunnerDefinition{},
		Assets:  map[string]*config.AssetDefinition{},
	}

	// --- Act ---
	err := loader.LoadManifest(context.Background(), "shipper.hcl", manifest, model)

	// --- Assert ---
	require.NoError(t, err)
	def, ok := model.Runners["shipper"]
	require.True(t, ok)
	assert.Equal(t, "Ships artifacts somewhere.", def.Description)
	require.NotNil(t, def.Lifecycle)
	assert.Equal(t, "OnRunShipper", def.Lifecycle.OnRun)

	require.Contains(t, def.Inputs, "target")
	target := def.Inputs["target"]
	assert.True(t, target.Type.Equals(cty.String))
	assert.Nil(t, target.Default)
	assert.False(t, target.Optional)

	tags := def.Inputs["tags"]
	assert.True(t, tags.Type.Equals(cty.List(cty.String)))
	require.NotNil(t, tags.Default)
	assert.True(t, tags.Optional, "a declared default makes the input optional")

	assert.True(t, def.Inputs["labels"].Type.Equals(cty.Map(cty.String)))
	assert.True(t, def.Inputs["dry_run"].Type.Equals(cty.Bool))
	assert.True(t, def.Inputs["retries"].Type.Equals(cty.Number))
	assert.True(t, def.Inputs["payload"].Type.Equals(cty.DynamicPseudoType))
	assert.True(t, def.Inputs["payload"].Optional)

	require.Contains(t, def.Outputs, "url")
	assert.True(t, def.Outputs["url"].Type.Equals(cty.String))

	require.Contains(t, def.Uses, "client")
	assert.Equal(t, "http_client", def.Uses["client"].AssetType)
}

func TestLoadManifest_TranslatesAssetDefinition(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifest := []byte(`
asset "pool" {
  lifecycle {
    create  = "CreatePool"
    destroy = "DestroyPool"
  }

  input "size" {
    type    = number
    default = 4
  }
}
`)
	loader := NewLoader()
	model := &config.Model{
		Runners: map[string]*config.RunnerDefinition{},
		Assets:  map[string]*config.AssetDefinition{},
	}

	// --- Act ---
	err := loader.LoadManifest(context.Background(), "pool.hcl", manifest, model)

	// --- Assert ---
	require.NoError(t, err)
	def, ok := model.Assets["pool"]
	require.True(t, ok)
	require.NotNil(t, def.Lifecycle)
	assert.Equal(t, "CreatePool", def.Lifecycle.Create)
	assert.Equal(t, "DestroyPool", def.Lifecycle.Destroy)
	assert.True(t, def.Inputs["size"].Type.Equals(cty.Number))
}

func TestLoadManifest_RejectsFlowBlocks(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifest := []byte(`
flow "sneaky" {
  step "exec" "a" {
    arguments {
      command = "true"
    }
  }
}
`)
	loader := NewLoader()
	model := &config.Model{
		Runners: map[string]*config.RunnerDefinition{},
		Assets:  map[string]*config.AssetDefinition{},
	}

	// --- Act ---
	err := loader.LoadManifest(context.Background(), "sneaky.hcl", manifest, model)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), "may only declare runner and asset definitions")
}
