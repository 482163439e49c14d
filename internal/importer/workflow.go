package importer

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// workflow mirrors the subset of the GitHub Actions workflow format the
// importer understands.
type workflow struct {
	Name string         `yaml:"name"`
	On   triggerEvents  `yaml:"on"`
	Env  map[string]any `yaml:"env"`
	Jobs map[string]job `yaml:"jobs"`
}

type job struct {
	Name  string         `yaml:"name"`
	Needs any            `yaml:"needs"`
	Env   map[string]any `yaml:"env"`
	Steps []jobStep      `yaml:"steps"`
}

type jobStep struct {
	ID   string            `yaml:"id"`
	Name string            `yaml:"name"`
	Uses string            `yaml:"uses"`
	Run  string            `yaml:"run"`
	With map[string]string `yaml:"with"`
	Env  map[string]any    `yaml:"env"`
}

type scheduleEntry struct {
	Cron string `yaml:"cron"`
}

// triggerEvents normalizes the three shapes the `on` key takes: a single
// event name, a list of event names, or a map of event configurations.
type triggerEvents struct {
	Schedules        []string
	WorkflowDispatch bool
}

func (t *triggerEvents) UnmarshalYAML(data []byte) error {
	var single string
	if err := yaml.Unmarshal(data, &single); err == nil {
		t.addEvent(single)
		return nil
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		for _, name := range list {
			t.addEvent(name)
		}
		return nil
	}

	var full struct {
		Schedule []scheduleEntry `yaml:"schedule"`
	}
	if err := yaml.Unmarshal(data, &full); err != nil {
		return fmt.Errorf("unsupported `on` trigger shape: %w", err)
	}
	for _, entry := range full.Schedule {
		if entry.Cron != "" {
			t.Schedules = append(t.Schedules, entry.Cron)
		}
	}

	// workflow_dispatch is usually a key with a null value, so presence is
	// what matters, not content.
	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err == nil {
		_, t.WorkflowDispatch = keys["workflow_dispatch"]
	}
	return nil
}

func (t *triggerEvents) addEvent(name string) {
	if name == "workflow_dispatch" {
		t.WorkflowDispatch = true
	}
}

func parseWorkflow(src []byte) (*workflow, error) {
	var wf workflow
	if err := yaml.Unmarshal(src, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse workflow YAML: %w", err)
	}
	if len(wf.Jobs) == 0 {
		return nil, fmt.Errorf("workflow declares no jobs")
	}
	return &wf, nil
}
