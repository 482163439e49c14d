package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	flowhcl "github.com/specialistvlad/flowgridgo/internal/hcl"
)

const notionWorkflow = `name: Embed Notion

on:
  schedule:
    - cron: "0 * * * *"
  workflow_dispatch:

jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - name: Set up Python
        uses: actions/setup-python@v5
        with:
          python-version: "3.11"
      - name: Install dependencies
        run: |
          python -m pip install --upgrade pip
          pip install -r requirements.txt
      - name: List files
        run: ls -la
      - name: Run embed
        run: python main.py --embed
        env:
          NOTION_API_KEY: ${{ secrets.NOTION_API_KEY }}
          UPLOADFORM_TABLEKEY: ${{ secrets.UPLOADFORM_TABLEKEY }}
          DATA_MANAGE_TABLEKEY: ${{ secrets.DATA_MANAGE_TABLEKEY }}
          UPLOADFORM_DB_ID: ${{ secrets.UPLOADFORM_DB_ID }}
          GDRIVE_KEY: ${{ secrets.GDRIVE_KEY }}
          GDRIVE_SHARE_EMAIL: ${{ secrets.GDRIVE_SHARE_EMAIL }}
`

// TestImport_RoundTripsThroughLoader verifies that the generated file is
// valid flow configuration by loading it back with the HCL loader.
func TestImport_RoundTripsThroughLoader(t *testing.T) {
	t.Parallel()

	// Act
	res, err := Import([]byte(notionWorkflow))
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "imported.hcl")
	require.NoError(t, os.WriteFile(path, res.File.Bytes(), 0o644))

	model, _, err := flowhcl.NewLoader().Load(context.Background(), dir)
	require.NoError(t, err, "generated HCL should load cleanly:\n%s", res.File.Bytes())

	// Assert
	flow, ok := model.Flow("embed_notion")
	require.True(t, ok, "expected flow embed_notion, got %v", res.Flows)

	require.NotNil(t, flow.Trigger)
	assert.Equal(t, "0 * * * *", flow.Trigger.Schedule)
	assert.True(t, flow.Trigger.Manual)

	assert.Equal(t, []string{
		"DATA_MANAGE_TABLEKEY",
		"GDRIVE_KEY",
		"GDRIVE_SHARE_EMAIL",
		"NOTION_API_KEY",
		"UPLOADFORM_DB_ID",
		"UPLOADFORM_TABLEKEY",
	}, flow.SecretKeys)

	// The unsupported setup-python action becomes a comment, leaving four
	// runnable steps.
	require.Len(t, flow.Steps, 4)
	assert.Equal(t, "git", flow.Steps[0].RunnerType)
	assert.Equal(t, "checkout_1", flow.Steps[0].Name)
	assert.Equal(t, "exec", flow.Steps[1].RunnerType)
	assert.Equal(t, "install_dependencies", flow.Steps[1].Name)
	assert.Equal(t, "exec", flow.Steps[2].RunnerType)
	assert.Equal(t, "list_files", flow.Steps[2].Name)
	assert.Equal(t, "exec", flow.Steps[3].RunnerType)
	assert.Equal(t, "run_embed", flow.Steps[3].Name)

	// Run scripts become `sh -c <script>` so multi-line bodies survive.
	embedArgs := flow.Steps[3].Arguments
	require.Contains(t, embedArgs, "command")
	require.Contains(t, embedArgs, "args")
	require.Contains(t, embedArgs, "env")

	cmdVal, diags := embedArgs["command"].Value(nil)
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Equal(t, "sh", cmdVal.AsString())

	argsVal, diags := embedArgs["args"].Value(nil)
	require.False(t, diags.HasErrors(), diags.Error())
	argSlice := argsVal.AsValueSlice()
	require.Len(t, argSlice, 2)
	assert.Equal(t, "-c", argSlice[0].AsString())
	assert.Equal(t, "python main.py --embed", argSlice[1].AsString())
}

// TestImport_CheckoutWithRepository verifies the checkout mapping when the
// workflow names a repository and path explicitly.
func TestImport_CheckoutWithRepository(t *testing.T) {
	t.Parallel()

	src := []byte(`on:
  workflow_dispatch:
jobs:
  sync:
    steps:
      - uses: actions/checkout@v4
        with:
          repository: example/data-pipeline
          ref: main
          path: pipeline
`)

	res, err := Import(src)
	require.NoError(t, err)

	rendered := string(res.File.Bytes())
	assert.Regexp(t, `repo\s+= "https://github\.com/example/data-pipeline\.git"`, rendered)
	assert.Regexp(t, `ref\s+= "main"`, rendered)
	assert.Regexp(t, `dir\s+= "pipeline"`, rendered)
	assert.Empty(t, res.Warnings)
}

// TestImport_ReportsSecretsAndWarnings verifies the summary side of the
// result.
func TestImport_ReportsSecretsAndWarnings(t *testing.T) {
	t.Parallel()

	res, err := Import([]byte(notionWorkflow))
	require.NoError(t, err)

	assert.Len(t, res.Secrets, 6)
	assert.Contains(t, res.Secrets, "NOTION_API_KEY")
	assert.Contains(t, res.Secrets, "GDRIVE_SHARE_EMAIL")

	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "without a repository")
	assert.Contains(t, res.Warnings[1], `unsupported action "actions/setup-python@v5"`)

	rendered := string(res.File.Bytes())
	assert.Contains(t, rendered, "# step \"Set up Python\" uses unsupported action")
}

// TestImport_MultipleJobsBecomeSuffixedFlows verifies the one-flow-per-job
// mapping.
func TestImport_MultipleJobsBecomeSuffixedFlows(t *testing.T) {
	t.Parallel()

	src := []byte(`name: Nightly
on:
  workflow_dispatch:
jobs:
  lint:
    steps:
      - run: make lint
  test:
    steps:
      - run: make test
`)

	res, err := Import(src)
	require.NoError(t, err)

	assert.Equal(t, []string{"nightly_lint", "nightly_test"}, res.Flows)

	rendered := string(res.File.Bytes())
	assert.Contains(t, rendered, `flow "nightly_lint"`)
	assert.Contains(t, rendered, `flow "nightly_test"`)
}

// TestImport_SecretReferenceForms verifies the three rewrite shapes: a bare
// reference becomes a traversal, an embedded reference becomes an
// interpolation, and unrelated ${ sequences stay literal.
func TestImport_SecretReferenceForms(t *testing.T) {
	t.Parallel()

	src := []byte(`on:
  workflow_dispatch:
jobs:
  deploy:
    steps:
      - run: echo "home is ${HOME}"
        env:
          API_TOKEN: ${{ secrets.API_TOKEN }}
          AUTH_HEADER: Bearer ${{ secrets.API_TOKEN }}
`)

	res, err := Import(src)
	require.NoError(t, err)

	// hclwrite aligns = signs, so match with flexible whitespace.
	rendered := string(res.File.Bytes())
	assert.Regexp(t, `API_TOKEN\s+= secrets\.API_TOKEN`, rendered)
	assert.Regexp(t, `AUTH_HEADER\s+= "Bearer \$\{secrets\.API_TOKEN\}"`, rendered)
	assert.Contains(t, rendered, `home is $${HOME}`)
	assert.Equal(t, []string{"API_TOKEN"}, res.Secrets)
}

// TestImport_EnvMapsAreCarried verifies workflow and job env merge into the
// flow env block, with job values winning.
func TestImport_EnvMapsAreCarried(t *testing.T) {
	t.Parallel()

	src := []byte(`on:
  workflow_dispatch:
env:
  PYTHONUNBUFFERED: "1"
  STAGE: dev
jobs:
  run:
    env:
      STAGE: prod
    steps:
      - run: python main.py
`)

	res, err := Import(src)
	require.NoError(t, err)

	rendered := string(res.File.Bytes())
	assert.Regexp(t, `PYTHONUNBUFFERED\s+= "1"`, rendered)
	assert.Regexp(t, `STAGE\s+= "prod"`, rendered)
	assert.NotContains(t, rendered, `"dev"`)
}

// TestImport_FailsWithoutJobs verifies an empty workflow is rejected.
func TestImport_FailsWithoutJobs(t *testing.T) {
	t.Parallel()

	_, err := Import([]byte("name: empty\non: push\n"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no jobs")
}
