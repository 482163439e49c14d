// Package importer converts GitHub-Actions-style workflow YAML into flow
// definitions.
//
// The mapping is intentionally narrow: schedule and workflow_dispatch
// triggers, run scripts, checkout actions, env maps, and secret references.
// Anything else is carried into the output as a comment and reported in the
// result summary rather than failing the import.
package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

var (
	secretRefRe      = regexp.MustCompile(`\$\{\{\s*secrets\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	envRefRe         = regexp.MustCompile(`\$\{\{\s*env\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)
	exactSecretRefRe = regexp.MustCompile(`^\$\{\{\s*secrets\.([A-Za-z_][A-Za-z0-9_]*)\s*\}\}$`)
	// NUL cannot appear in YAML scalars, so it is a collision-safe marker
	// while stray interpolation sequences are being escaped.
	markerRe = regexp.MustCompile("\x00([^\x00]+)\x00")
)

// Result is the outcome of one import: the generated file plus a summary of
// what was (and was not) carried over.
type Result struct {
	File     *hclwrite.File
	Flows    []string
	Secrets  []string
	Warnings []string
}

// Import translates a workflow document into flow blocks. Each job becomes
// its own flow; job names are suffixed onto the workflow name when there is
// more than one.
func Import(src []byte) (*Result, error) {
	wf, err := parseWorkflow(src)
	if err != nil {
		return nil, err
	}

	res := &Result{File: hclwrite.NewEmptyFile()}
	body := res.File.Body()
	secretSet := make(map[string]bool)

	jobIDs := make([]string, 0, len(wf.Jobs))
	for id := range wf.Jobs {
		jobIDs = append(jobIDs, id)
	}
	sort.Strings(jobIDs)

	base := slugify(wf.Name)
	for i, jobID := range jobIDs {
		flowName := base
		if flowName == "" {
			flowName = slugify(jobID)
		}
		if flowName == "" {
			flowName = "imported"
		}
		if len(jobIDs) > 1 {
			flowName = flowName + "_" + slugify(jobID)
		}

		if i > 0 {
			body.AppendNewline()
		}
		emitFlow(body, flowName, wf, wf.Jobs[jobID], secretSet, res)
		res.Flows = append(res.Flows, flowName)
	}

	for key := range secretSet {
		res.Secrets = append(res.Secrets, key)
	}
	sort.Strings(res.Secrets)
	return res, nil
}

func emitFlow(body *hclwrite.Body, name string, wf *workflow, j job, secretSet map[string]bool, res *Result) {
	fb := body.AppendNewBlock("flow", []string{name}).Body()

	if wf.Name != "" {
		fb.SetAttributeValue("description", cty.StringVal(fmt.Sprintf("Imported from workflow %q", wf.Name)))
	}

	hasSchedule := len(wf.On.Schedules) > 0
	if hasSchedule || wf.On.WorkflowDispatch {
		tb := fb.AppendNewBlock("trigger", nil).Body()
		if hasSchedule {
			tb.SetAttributeValue("schedule", cty.StringVal(wf.On.Schedules[0]))
			if len(wf.On.Schedules) > 1 {
				res.Warnings = append(res.Warnings, fmt.Sprintf(
					"flow %q: only the first of %d cron schedules was imported", name, len(wf.On.Schedules)))
			}
		}
		if wf.On.WorkflowDispatch {
			tb.SetAttributeValue("manual", cty.True)
		}
	} else {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"flow %q: workflow has no schedule or workflow_dispatch trigger", name))
	}

	if j.Needs != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"flow %q: job-level `needs` is not supported; imported flows run independently", name))
	}

	secrets := collectFlowSecrets(wf, j)
	if len(secrets) > 0 {
		vals := make([]cty.Value, 0, len(secrets))
		for _, key := range secrets {
			vals = append(vals, cty.StringVal(key))
			secretSet[key] = true
		}
		fb.SetAttributeValue("secrets", cty.ListVal(vals))
	}

	env := mergeEnv(wf.Env, j.Env)
	if len(env) > 0 {
		eb := fb.AppendNewBlock("env", nil).Body()
		for _, key := range sortedKeys(env) {
			eb.SetAttributeRaw(key, tokensForString(env[key]))
		}
	}

	usedNames := make(map[string]bool)
	for idx, st := range j.Steps {
		fb.AppendNewline()
		switch {
		case st.Run != "":
			emitRunStep(fb, st, stepName(st, idx, "run", usedNames))
		case strings.HasPrefix(st.Uses, "actions/checkout"):
			emitCheckoutStep(fb, st, stepName(st, idx, "checkout", usedNames), name, res)
		case st.Uses != "":
			emitPlaceholder(fb, st, name, res)
		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"flow %q: step %d has neither `run` nor `uses` and was skipped", name, idx+1))
		}
	}
}

func emitRunStep(fb *hclwrite.Body, st jobStep, name string) {
	sb := fb.AppendNewBlock("step", []string{"exec", name}).Body()
	args := sb.AppendNewBlock("arguments", nil).Body()

	args.SetAttributeValue("command", cty.StringVal("sh"))
	args.SetAttributeRaw("args", hclwrite.TokensForTuple([]hclwrite.Tokens{
		hclwrite.TokensForValue(cty.StringVal("-c")),
		tokensForString(strings.TrimRight(st.Run, "\n")),
	}))
	if len(st.Env) > 0 {
		envStrings := make(map[string]string, len(st.Env))
		for k, v := range st.Env {
			envStrings[k] = stringify(v)
		}
		args.SetAttributeRaw("env", tokensForEnvMap(envStrings))
	}
}

func emitCheckoutStep(fb *hclwrite.Body, st jobStep, name, flowName string, res *Result) {
	sb := fb.AppendNewBlock("step", []string{"git", name}).Body()
	args := sb.AppendNewBlock("arguments", nil).Body()

	if repo := st.With["repository"]; repo != "" {
		args.SetAttributeRaw("repo", tokensForString(normalizeRepo(repo)))
	} else {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"flow %q: checkout step %q imported without a repository; set arguments.repo", flowName, name))
	}
	if ref := st.With["ref"]; ref != "" {
		args.SetAttributeRaw("ref", tokensForString(ref))
	}
	if path := st.With["path"]; path != "" {
		args.SetAttributeRaw("dir", tokensForString(path))
	}
}

func emitPlaceholder(fb *hclwrite.Body, st jobStep, flowName string, res *Result) {
	label := st.Name
	if label == "" {
		label = st.Uses
	}
	fb.AppendUnstructuredTokens(hclwrite.Tokens{{
		Type:  hclsyntax.TokenComment,
		Bytes: []byte(fmt.Sprintf("  # step %q uses unsupported action %q and was not imported\n", label, st.Uses)),
	}})
	res.Warnings = append(res.Warnings, fmt.Sprintf(
		"flow %q: unsupported action %q (step %q) imported as a comment", flowName, st.Uses, label))
}

// collectFlowSecrets scans every text the job carries for secret references
// and returns the sorted, de-duplicated key names.
func collectFlowSecrets(wf *workflow, j job) []string {
	set := make(map[string]bool)
	scan := func(text string) {
		for _, m := range secretRefRe.FindAllStringSubmatch(text, -1) {
			set[m[1]] = true
		}
	}
	for _, v := range wf.Env {
		scan(stringify(v))
	}
	for _, v := range j.Env {
		scan(stringify(v))
	}
	for _, st := range j.Steps {
		scan(st.Run)
		for _, v := range st.Env {
			scan(stringify(v))
		}
		for _, v := range st.With {
			scan(v)
		}
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// tokensForString renders a workflow string as an HCL expression. A value
// that is exactly one secret reference becomes a bare traversal; embedded
// references become template interpolations; everything else is a plain
// quoted string with stray ${ sequences escaped.
func tokensForString(raw string) hclwrite.Tokens {
	if m := exactSecretRefRe.FindStringSubmatch(raw); m != nil {
		return hclwrite.TokensForTraversal(hcl.Traversal{
			hcl.TraverseRoot{Name: "secrets"},
			hcl.TraverseAttr{Name: m[1]},
		})
	}

	src, hasRef := templateSource(raw)
	if !hasRef {
		return hclwrite.TokensForValue(cty.StringVal(raw))
	}
	return hclwrite.Tokens{
		{Type: hclsyntax.TokenOQuote, Bytes: []byte(`"`)},
		{Type: hclsyntax.TokenQuotedLit, Bytes: []byte(escapeQuotedLit(src))},
		{Type: hclsyntax.TokenCQuote, Bytes: []byte(`"`)},
	}
}

// templateSource rewrites ${{ secrets.X }} and ${{ env.X }} into native
// interpolations while escaping any other ${ or %{ so it stays literal.
func templateSource(s string) (string, bool) {
	out := secretRefRe.ReplaceAllString(s, "\x00secrets.$1\x00")
	out = envRefRe.ReplaceAllString(out, "\x00env.$1\x00")
	hasRef := strings.Contains(out, "\x00")
	out = strings.ReplaceAll(out, "${", "$${")
	out = strings.ReplaceAll(out, "%{", "%%{")
	out = markerRe.ReplaceAllString(out, "${$1}")
	return out, hasRef
}

func escapeQuotedLit(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func tokensForEnvMap(env map[string]string) hclwrite.Tokens {
	attrs := make([]hclwrite.ObjectAttrTokens, 0, len(env))
	for _, key := range sortedKeys(env) {
		attrs = append(attrs, hclwrite.ObjectAttrTokens{
			Name:  hclwrite.TokensForIdentifier(key),
			Value: tokensForString(env[key]),
		})
	}
	return hclwrite.TokensForObject(attrs)
}

func mergeEnv(workflowEnv, jobEnv map[string]any) map[string]string {
	merged := make(map[string]string, len(workflowEnv)+len(jobEnv))
	for k, v := range workflowEnv {
		merged[k] = stringify(v)
	}
	for k, v := range jobEnv {
		merged[k] = stringify(v)
	}
	return merged
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func stepName(st jobStep, idx int, fallback string, used map[string]bool) string {
	name := slugify(st.ID)
	if name == "" {
		name = slugify(st.Name)
	}
	if name == "" {
		name = fmt.Sprintf("%s_%d", fallback, idx+1)
	}
	base := name
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	used[name] = true
	return name
}

// normalizeRepo turns the owner/repo shorthand into a clone URL; full URLs
// and SSH remotes pass through untouched.
func normalizeRepo(repo string) string {
	if strings.Contains(repo, "://") || strings.HasPrefix(repo, "git@") {
		return repo
	}
	return "https://github.com/" + repo + ".git"
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastSep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		case b.Len() > 0 && !lastSep:
			b.WriteByte('_')
			lastSep = true
		}
	}
	return strings.Trim(b.String(), "_")
}
